package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/cwrk-planet/interview-room-service/pkg/logger"
)

func TestAuthMiddleware(t *testing.T) {
	var got int64
	h := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromCtx(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		auth   string
		userID string
		want   int
	}{
		{"ok", "Bearer abc", "42", http.StatusNoContent},
		{"lowercase scheme", "bearer abc", "42", http.StatusNoContent},
		{"no token", "", "42", http.StatusUnauthorized},
		{"empty token", "Bearer ", "42", http.StatusUnauthorized},
		{"basic auth", "Basic abc", "42", http.StatusUnauthorized},
		{"no user", "Bearer abc", "", http.StatusUnauthorized},
		{"not a number", "Bearer abc", "alice", http.StatusUnauthorized},
		{"zero user", "Bearer abc", "0", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.userID != "" {
				req.Header.Set("X-User-ID", tc.userID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusNoContent {
				assert.Equal(t, int64(42), got)
			}
		})
	}
}

func TestLoggingPropagatesRequestID(t *testing.T) {
	var reqID string
	h := middleware.RequestID(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, _ = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "req-1", rec.Header().Get(middleware.RequestIDHeader))
}
