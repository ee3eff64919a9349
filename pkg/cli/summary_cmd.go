package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"catalog-summary/internal/domain"
)

// newSummaryCmd builds "catsum table <fqn>" or "catsum dashboard <fqn>".
// kind is the path segment under /v1/summaries.
func newSummaryCmd(client *Client, use, kind string) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   use + " <fqn>",
		Short: fmt.Sprintf("Show the summary of a %s", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dctx, _ := cmd.Root().PersistentFlags().GetString("context")
			q := url.Values{}
			q.Set("context", dctx)

			if stream {
				return streamSummary(cmd, client, summaryPath(kind, args[0])+"/stream", q)
			}

			var vm domain.ViewModel
			if err := client.GetJSON(cmd.Context(), summaryPath(kind, args[0]), q, &vm); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, vm)
			}
			renderSummary(os.Stdout, &vm)
			return nil
		},
	}
	if kind == "tables" {
		cmd.Flags().BoolVar(&stream, "stream", false, "Print each update as the summary resolves")
	}
	return cmd
}

// streamSummary reads the server-sent events of a summary stream and prints
// every view-model as it arrives.
func streamSummary(cmd *cobra.Command, client *Client, path string, q url.Values) error {
	resp, err := client.Do(cmd.Context(), path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if err := checkError(resp); err != nil {
		return err
	}

	return readEvents(resp.Body, func(event, data string) error {
		switch event {
		case "summary":
			var vm domain.ViewModel
			if err := json.Unmarshal([]byte(data), &vm); err != nil {
				return fmt.Errorf("decode summary event: %w", err)
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, vm)
			}
			renderSummary(os.Stdout, &vm)
			_, _ = fmt.Fprintln(os.Stdout)
			return nil
		case "error":
			var e struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			_ = json.Unmarshal([]byte(data), &e)
			return &APIError{HTTPStatus: e.Code, Code: e.Code, Message: e.Message}
		}
		return nil
	})
}

// readEvents parses a text/event-stream body, calling fn once per event.
func readEvents(r io.Reader, fn func(event, data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)

	event := "message"
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if err := fn(event, strings.Join(data, "\n")); err != nil {
					return err
				}
			}
			event, data = "message", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return scanner.Err()
}
