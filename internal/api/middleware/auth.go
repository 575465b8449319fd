package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"kitrader/pkg/crypto"
)

// AdminAuth - middleware авторизации административных маршрутов
//
// Ожидает заголовок Authorization: Bearer <token> и сверяет токен
// с bcrypt-хешем из конфигурации. Если хеш не задан, административные
// маршруты закрыты полностью.
func AdminAuth(tokenHash string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				http.Error(w, "Admin endpoints disabled. Set ADMIN_TOKEN_HASH.", http.StatusForbidden)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// bcrypt сравнение устойчиво к timing-атакам
			if !crypto.CheckTokenMatch(token, tokenHash) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
