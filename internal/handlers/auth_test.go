package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func loginRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/services/auth/login?output_mode=json", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	h, err := NewAuthHandler("admin", "changeme", "key-123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewAuthHandler: %v", err)
	}

	rr := httptest.NewRecorder()
	h.Login(rr, loginRequest(url.Values{"username": {"admin"}, "password": {"changeme"}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200", rr.Code)
	}
	var out struct {
		SessionKey string `json:"sessionKey"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SessionKey != "key-123" {
		t.Errorf("sessionKey: got %q", out.SessionKey)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h, err := NewAuthHandler("admin", "changeme", "key-123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewAuthHandler: %v", err)
	}

	cases := []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"root"}, "password": {"changeme"}},
	}
	for _, form := range cases {
		rr := httptest.NewRecorder()
		h.Login(rr, loginRequest(form))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Login(%v) status: got %d, want 401", form, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "key-123") {
			t.Errorf("session key leaked for %v", form)
		}
	}

	rr := httptest.NewRecorder()
	h.Login(rr, loginRequest(url.Values{"username": {"admin"}}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing password: got %d, want 400", rr.Code)
	}
}
