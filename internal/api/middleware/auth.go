package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-FacilityBookingService/internal/api/handlers"
)

// HeaderUserID идентификатор вызывающего, проставляется шлюзом
const HeaderUserID = "X-User-ID"

type ctxKey struct{}

// Auth пропускает только запросы с корректным X-User-ID
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderUserID)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID кладет ID пользователя в контекст
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID ID пользователя, проставленный Auth
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
