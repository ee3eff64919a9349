package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated caller through request context.
type ContextPrincipal struct {
	Subject string
	Name    string
	Issuer  string
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}

type subjectKey struct{}

// WithSubject records the FQN of the entity a request is working on, so that
// failures raised deeper in the call chain can be attributed to it.
func WithSubject(ctx context.Context, fqn string) context.Context {
	return context.WithValue(ctx, subjectKey{}, fqn)
}

// SubjectFromContext returns the FQN stored by WithSubject, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

type requestIDKey struct{}

// WithRequestID stores the inbound request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
