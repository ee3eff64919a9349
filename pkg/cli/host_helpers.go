package cli

import (
	"fmt"
	"net/url"
	"strings"
)

// normalizeHost validates a summary server URL and returns it without a
// trailing slash. The /v1 prefix is added by the client, so a host that
// already carries it is rejected with a hint.
func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("invalid host: host URL cannot be empty")
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid host %q: scheme must be http or https", host)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid host %q: missing host", host)
	}
	switch strings.TrimRight(u.Path, "/") {
	case "":
	case "/v1":
		return "", fmt.Errorf("invalid host %q: drop the /v1 suffix, catsum adds it", host)
	default:
		return "", fmt.Errorf("invalid host %q: host must not include a path", host)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("invalid host %q: host must not include credentials, query or fragment", host)
	}
	return u.Scheme + "://" + u.Host, nil
}
