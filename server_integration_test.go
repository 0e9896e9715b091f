package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bb01/pkg/tokens"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token and optional refresh cookie
func performServerRequest(r http.Handler, method, path string, body io.Reader, token, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v body=%s", err, rec.Body.String())
	}
	return env
}

func accessTokenFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	payload, _ := env["payload"].(map[string]any)
	token, _ := payload["access_token"].(string)
	if token == "" {
		t.Fatalf("empty access token in response: %s", rec.Body.String())
	}
	return token
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatalf("no refresh cookie in response")
	return nil
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)

	cfg := Config{
		DSN:           os.Getenv("DB_DSN"),
		AutoMigrate:   true,
		AccessSecret:  []byte("it-access-secret"),
		RefreshSecret: []byte("it-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	db, err := initDB(cfg)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	codec := tokens.NewCodec(tokens.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	identities := NewIdentityStore(db)
	server := NewServer(
		NewAuthService(NewUserStore(db, identities), identities, NewRevocationLedger(db), codec),
		NewBoardService(db),
		codec,
	)

	r := gin.New()
	server.setupRoutes(r)
	return r
}

func TestFullAuthFlow(t *testing.T) {
	r := setupTestServer(t)

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("user%d@example.com", suffix)
	username := fmt.Sprintf("user%d", suffix)

	// 1. Register
	regBody, _ := json.Marshal(map[string]string{
		"firstname": "Test", "lastname": "User",
		"email": email, "username": username,
		"password": "Password1!", "repeat": "Password1!",
	})
	resp := performServerRequest(r, http.MethodPost, "/api/auth/register", bytes.NewBuffer(regBody), "", "application/json", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login (form-encoded)
	form := fmt.Sprintf("email=%s&password=Password1!", email)
	resp = performServerRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBufferString(form), "", "application/x-www-form-urlencoded", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	token := accessTokenFrom(t, resp)
	refreshCookie := refreshCookieFrom(t, resp)

	// 3. Wrong password is a generic 401
	badForm := fmt.Sprintf("email=%s&password=wrong", email)
	resp = performServerRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBufferString(badForm), "", "application/x-www-form-urlencoded", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password got %d", resp.Code)
	}

	// 4. Current user
	resp = performServerRequest(r, http.MethodGet, "/api/users/me", nil, token, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("me failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 5. Create and list boards
	boardName := fmt.Sprintf("board-%d", suffix)
	boardBody, _ := json.Marshal(map[string]string{"name": boardName})
	resp = performServerRequest(r, http.MethodPost, "/api/boards", bytes.NewBuffer(boardBody), token, "application/json", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create board failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performServerRequest(r, http.MethodPost, "/api/boards", bytes.NewBuffer(boardBody), token, "application/json", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate board got %d", resp.Code)
	}
	resp = performServerRequest(r, http.MethodGet, "/api/boards", nil, token, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list boards failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Refresh rotates the pair
	resp = performServerRequest(r, http.MethodPost, "/api/auth/refresh", nil, token, "", []*http.Cookie{refreshCookie})
	if resp.Code != http.StatusOK {
		t.Fatalf("refresh failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	newToken := accessTokenFrom(t, resp)
	newRefreshCookie := refreshCookieFrom(t, resp)

	// 7. The consumed refresh token is single-use
	resp = performServerRequest(r, http.MethodPost, "/api/auth/refresh", nil, newToken, "", []*http.Cookie{refreshCookie})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused refresh token got %d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Logout twice: idempotent success
	resp = performServerRequest(r, http.MethodPost, "/api/auth/logout", nil, newToken, "", []*http.Cookie{newRefreshCookie})
	if resp.Code != http.StatusOK {
		t.Fatalf("logout failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performServerRequest(r, http.MethodPost, "/api/auth/logout", nil, newToken, "", []*http.Cookie{newRefreshCookie})
	if resp.Code != http.StatusOK {
		t.Fatalf("second logout failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Unauthorized access is rejected
	resp = performServerRequest(r, http.MethodGet, "/api/boards", nil, "", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list boards got %d", resp.Code)
	}
}

func TestLogoutEverywhereOrphansOldTokens(t *testing.T) {
	r := setupTestServer(t)

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("rotate%d@example.com", suffix)
	regBody, _ := json.Marshal(map[string]string{
		"firstname": "Rotate", "lastname": "User",
		"email": email, "username": fmt.Sprintf("rotate%d", suffix),
		"password": "Password1!", "repeat": "Password1!",
	})
	resp := performServerRequest(r, http.MethodPost, "/api/auth/register", bytes.NewBuffer(regBody), "", "application/json", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	token := accessTokenFrom(t, resp)

	// logout without the refresh cookie forces the account-wide fallback
	resp = performServerRequest(r, http.MethodPost, "/api/auth/logout", nil, token, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("logout failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// the still-unexpired access token no longer resolves to the principal
	resp = performServerRequest(r, http.MethodGet, "/api/users/me", nil, token, "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rotated identity got %d body=%s", resp.Code, resp.Body.String())
	}
}
