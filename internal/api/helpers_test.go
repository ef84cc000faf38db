package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guyr22/web-dev-final-project/internal/ai"
	"github.com/guyr22/web-dev-final-project/internal/auth"
	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/google"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcde"
)

type testEnv struct {
	server   *Server
	users    *fakeUserStore
	posts    *fakePostStore
	tokens   *auth.TokenService
	verifier *fakeVerifier
	blobs    *blob.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	blobs, err := blob.NewService(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("creating blob service: %v", err)
	}

	users := newFakeUserStore()
	posts := newFakePostStore()
	tokens := auth.NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	verifier := &fakeVerifier{profile: &google.Profile{
		Email:         "google@example.com",
		Name:          "Google User",
		Picture:       "https://lh3.example.com/photo.jpg",
		EmailVerified: true,
	}}

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	server := NewServer(Deps{
		Users:    users,
		Posts:    posts,
		Store:    &fakePinger{},
		Tokens:   tokens,
		Verifier: verifier,
		Blobs:    blobs,
		Tagger:   ai.MockTagger{},
		Hub:      hub,
	})

	return &testEnv{
		server:   server,
		users:    users,
		posts:    posts,
		tokens:   tokens,
		verifier: verifier,
		blobs:    blobs,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, accessToken string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns the issued
// session.
func (e *testEnv) register(t *testing.T, username, email, password string) tokenPairResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	var session tokenPairResponse
	decodeBody(t, rec, &session)
	return session
}

func (e *testEnv) login(t *testing.T, email, password string) tokenPairResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	var session tokenPairResponse
	decodeBody(t, rec, &session)
	return session
}

func newRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func bodyMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg MessageResponse
	decodeBody(t, rec, &msg)
	return msg.Message
}
