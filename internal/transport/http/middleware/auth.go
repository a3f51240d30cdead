package httpmw

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// простая авторизация: требуем Bearer + X-User-ID (int64), токен проверяет шлюз
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if len(auth) <= 7 || !strings.EqualFold(auth[:7], "bearer ") {
			writeUnauthorized(w, "missing bearer token")
			return
		}

		uidHeader := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if uidHeader == "" {
			writeUnauthorized(w, "missing X-User-ID")
			return
		}
		uid, err := strconv.ParseInt(uidHeader, 10, 64)
		if err != nil || uid <= 0 {
			writeUnauthorized(w, "invalid X-User-ID (must be positive int64)")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromCtx(ctx context.Context) int64 {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
