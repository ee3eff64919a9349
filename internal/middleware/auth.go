package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"catalog-summary/internal/domain"
)

// Authenticate requires a valid Bearer JWT and stores the caller in the
// request context as a domain.ContextPrincipal.
func Authenticate(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeUnauthorized(w, "unauthorized: provide a Bearer token")
				return
			}

			claims, err := validator.Validate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				logger.Debug("token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
				writeUnauthorized(w, "unauthorized: invalid token")
				return
			}
			if claims.Subject == "" {
				writeUnauthorized(w, "unauthorized: token has no subject")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				Subject: claims.Subject,
				Name:    claims.DisplayName(),
				Issuer:  claims.Issuer,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="catalog-summary"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
