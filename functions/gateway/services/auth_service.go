package services

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"

	"github.com/eventpass/api/functions/gateway/constants"
)

// SessionClaims is the JWT claim set minted at login. Subject carries the
// user id.
type SessionClaims struct {
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Roles             []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func GetSessionSecret() string {
	return os.Getenv("SESSION_JWT_SECRET")
}

// MintSessionToken signs a session JWT for the given user. Login lives in a
// separate identity function; this is shared so tests and that function mint
// identical tokens.
func MintSessionToken(userInfo constants.UserInfo, ttl time.Duration) (string, error) {
	secret := GetSessionSecret()
	if secret == "" {
		return "", fmt.Errorf("SESSION_JWT_SECRET is not configured")
	}

	now := time.Now()
	claims := SessionClaims{
		Email:             userInfo.Email,
		Name:              userInfo.Name,
		PreferredUsername: userInfo.PreferredUsername,
		Roles:             userInfo.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userInfo.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates a session JWT and returns the user it belongs
// to. Only HMAC signatures are accepted.
func ParseSessionToken(tokenString string) (*constants.UserInfo, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(GetSessionSecret()), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("session token has no subject")
	}

	return &constants.UserInfo{
		Email:             claims.Email,
		EmailVerified:     true,
		Name:              claims.Name,
		PreferredUsername: claims.PreferredUsername,
		Sub:               claims.Subject,
		Roles:             claims.Roles,
	}, nil
}

// ExtractSessionToken pulls the bearer token from the Authorization header,
// falling back to the access_token cookie set by the web login flow
func ExtractSessionToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", fmt.Errorf("malformed Authorization header")
		}
		return parts[1], nil
	}

	cookie, err := r.Cookie("access_token")
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("no session token present")
	}
	return cookie.Value, nil
}
