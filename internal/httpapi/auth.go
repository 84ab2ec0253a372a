package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	User         string
	PasswordHash string // bcrypt
}

func (a Admin) enabled() bool { return a.User != "" && a.PasswordHash != "" }

type adminKey struct{}

// RequireAdmin guards raffle creation with HTTP basic auth. Without
// configured credentials the route is closed.
func RequireAdmin(a Admin) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.enabled() {
				http.Error(w, "raffle creation is disabled", http.StatusForbidden)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="raffles", charset="UTF-8"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey{}, user)))
		})
	}
}

func adminFrom(ctx context.Context) string {
	user, _ := ctx.Value(adminKey{}).(string)
	return user
}
