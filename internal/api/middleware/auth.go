package middleware

import (
	"net/http"

	"github.com/matyusmilan/xm-forex/pkg/crypto"
)

// BasicAuth - middleware для защиты служебных endpoints (/metrics)
//
// Конфигурация:
// - METRICS_USERNAME: имя пользователя
// - METRICS_PASSWORD_HASH: bcrypt хеш пароля
// - Если не заданы, endpoint открыт
//
// Имя пользователя сравнивается за постоянное время, пароль проверяется через bcrypt.
//
// Использование:
//
//	router.Handle("/metrics", middleware.BasicAuth(creds, "metrics")(promhttp.Handler()))
func BasicAuth(creds crypto.Credentials, realm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !creds.Enabled() {
			return next
		}

		challenge := `Basic realm="` + realm + `"`

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !creds.Check(user, pass) {
				w.Header().Set("WWW-Authenticate", challenge)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
