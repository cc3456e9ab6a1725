package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]string
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	uid, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: uid}, nil
}

func echoUID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := CurrentUserUID(r)
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(uid))
	})
}

func TestUserAuthMiddleware_Token(t *testing.T) {
	m := &UserAuthMiddleware{
		Verifier: fakeVerifier{tokens: map[string]string{"good": "u1", "blank": " "}},
		Logger:   zerolog.Nop(),
	}
	h := m.Handler(echoUID())

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "u1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer  ", http.StatusUnauthorized, ""},
		{"rejected", "Bearer nope", http.StatusUnauthorized, ""},
		{"blank uid", "Bearer blank", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestUserAuthMiddleware_DevHeader(t *testing.T) {
	h := (&UserAuthMiddleware{Disabled: true}).Handler(echoUID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "dev-user")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-user", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAuthMiddleware_NoVerifier(t *testing.T) {
	h := (&UserAuthMiddleware{}).Handler(echoUID())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS("https://hanami.example")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/treasures", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://hanami.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), DevUserHeader)
	assert.False(t, called)
}

func TestRecoverAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := chimw.RequestID(AccessLog(logger)(Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	out := buf.String()
	assert.Contains(t, out, `"message":"PANIC"`)
	assert.Contains(t, out, `"path":"/v1/me"`)
	assert.Contains(t, out, `"status":500`)
}
