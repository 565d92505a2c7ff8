package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
)

// HeaderManagementToken служебный токен для управления справочниками
const HeaderManagementToken = "X-Management-Token"

const msgManagementForbidden = "требуется служебный токен"

// Management пропускает только запросы с верным X-Management-Token.
// Пустой token не совпадает ни с чем
func Management(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(HeaderManagementToken))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				handlers.RespondForbidden(w, msgManagementForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
