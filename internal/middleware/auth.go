package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crucial707/searchsync/internal/handlers"
)

type key string

// UserKey holds the authenticated user name in the request context.
const UserKey key = "user"

// UserFromContext returns the user set by SplunkAuth.
func UserFromContext(ctx context.Context) string {
	u, _ := ctx.Value(UserKey).(string)
	return u
}

// SplunkAuth accepts the two header forms splunkd accepts:
// "Splunk <session key>" compared against sessionKey, and
// "Bearer <token>" verified as an HS256 JWT signed with secret.
func SplunkAuth(sessionKey string, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, cred, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || cred == "" {
				handlers.MessagesError(w, "call not properly authenticated", http.StatusUnauthorized)
				return
			}

			var user string
			switch strings.ToLower(scheme) {
			case "splunk":
				if sessionKey == "" || subtle.ConstantTimeCompare([]byte(cred), []byte(sessionKey)) != 1 {
					handlers.MessagesError(w, "call not properly authenticated", http.StatusUnauthorized)
					return
				}
				user = "admin"
			case "bearer":
				sub, err := verifyToken(cred, secret)
				if err != nil {
					handlers.MessagesError(w, "invalid token", http.StatusUnauthorized)
					return
				}
				user = sub
			default:
				handlers.MessagesError(w, "call not properly authenticated", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyToken(tokenStr string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token auth disabled")
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
