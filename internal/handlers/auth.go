package handlers

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves /services/auth/login for a single configured user.
type AuthHandler struct {
	Username     string
	PasswordHash []byte
	SessionKey   string
}

// NewAuthHandler hashes password with bcrypt at cost.
func NewAuthHandler(username, password, sessionKey string, cost int) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{Username: username, PasswordHash: hash, SessionKey: sessionKey}, nil
}

// Login checks the form credentials and returns {"sessionKey": ...}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		MessagesError(w, "invalid form body", http.StatusBadRequest)
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		MessagesError(w, "Login failed", http.StatusBadRequest)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		MessagesError(w, "Login failed", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionKey": h.SessionKey})
}
