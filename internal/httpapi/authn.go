package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gatesphere.dev/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// The relay endpoint authenticates inside the socket, not at upgrade time.
var publicPaths = []string{
	"/api/otp/send",
	"/api/otp/verify",
	"/metrics",
	"/healthz",
	"/readyz",
	"/ws",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithUser(r.Context(), claims.Subject, claims.Role, claims.SocietyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller pulls the authenticated identity out of the request context. Handlers
// never trust identity fields from the body.
func caller(r *http.Request) (userID, societyID string, ok bool) {
	userID, uok := auth.UserIDFromContext(r.Context())
	societyID, sok := auth.SocietyIDFromContext(r.Context())
	return userID, societyID, uok && sok
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
