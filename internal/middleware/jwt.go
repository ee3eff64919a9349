// Package middleware provides HTTP middleware for request IDs, rate limiting
// and bearer-token authentication.
package middleware

import (
	"context"
	"fmt"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Email    *string
	Name     *string
	Raw      map[string]interface{}
}

// DisplayName returns the name claim, then the email, then the subject.
func (c *JWTClaims) DisplayName() string {
	switch {
	case c.Name != nil && *c.Name != "":
		return *c.Name
	case c.Email != nil && *c.Email != "":
		return *c.Email
	}
	return c.Subject
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// AuthOptions selects and configures a JWTValidator.
type AuthOptions struct {
	IssuerURL      string
	JWKSURL        string
	Audience       string
	AllowedIssuers []string
	SharedSecret   string
}

// NewValidator builds the validator described by opts: OIDC discovery when
// an issuer is set, a bare JWKS when only a JWKS URL is set, HS256 when only
// a shared secret is set. It returns nil when nothing is configured.
func NewValidator(ctx context.Context, opts AuthOptions) (JWTValidator, error) {
	var (
		v   JWTValidator
		err error
	)
	switch {
	case opts.JWKSURL != "":
		v, err = NewOIDCValidatorFromJWKS(ctx, opts.JWKSURL, opts.IssuerURL, opts.Audience, opts.AllowedIssuers)
	case opts.IssuerURL != "":
		v, err = NewOIDCValidator(ctx, opts.IssuerURL, opts.Audience, opts.AllowedIssuers)
	case opts.SharedSecret != "":
		v, err = NewHS256Validator(opts.SharedSecret, opts.Audience)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// OIDCValidator validates JWTs using OIDC discovery or a JWKS endpoint.
type OIDCValidator struct {
	verifier       *oidc.IDTokenVerifier
	allowedIssuers map[string]bool
}

// NewOIDCValidator creates a validator from an OIDC issuer URL.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""})
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(issuerURL, allowedIssuers)}, nil
}

// NewOIDCValidatorFromJWKS creates a validator from a JWKS URL (no OIDC discovery).
func NewOIDCValidatorFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string, allowedIssuers []string) (*OIDCValidator, error) {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(issuerURL, keySet, &oidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
		SkipIssuerCheck:   issuerURL == "",
	})
	return &OIDCValidator{verifier: verifier, allowedIssuers: issuerSet(issuerURL, allowedIssuers)}, nil
}

func issuerSet(issuerURL string, allowed []string) map[string]bool {
	issuers := make(map[string]bool, len(allowed))
	for _, iss := range allowed {
		issuers[iss] = true
	}
	if len(issuers) == 0 && issuerURL != "" {
		issuers[issuerURL] = true
	}
	return issuers
}

// Validate verifies the JWT against the provider's keys.
func (v *OIDCValidator) Validate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if len(v.allowedIssuers) > 0 && !v.allowedIssuers[idToken.Issuer] {
		return nil, fmt.Errorf("issuer %q not in allowed list", idToken.Issuer)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	claims := &JWTClaims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Raw:      raw,
	}
	fillProfileClaims(claims, raw)
	return claims, nil
}

// HS256Validator validates JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret   []byte
	audience string
}

// NewHS256Validator creates a validator for local/dev HS256 tokens. A
// non-empty audience must appear in the token's aud claim.
func NewHS256Validator(secret, audience string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), audience: audience}, nil
}

// Validate verifies a JWT signed with HS256 and extracts claims.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	tok, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &JWTClaims{Raw: map[string]interface{}(raw)}
	claims.Subject, _ = raw.GetSubject()
	claims.Issuer, _ = raw.GetIssuer()
	if aud, err := raw.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = slices.Clone([]string(aud))
	}
	fillProfileClaims(claims, raw)
	return claims, nil
}

func fillProfileClaims(c *JWTClaims, raw map[string]interface{}) {
	if email, ok := raw["email"].(string); ok {
		c.Email = &email
	}
	if name, ok := raw["name"].(string); ok {
		c.Name = &name
	}
}
