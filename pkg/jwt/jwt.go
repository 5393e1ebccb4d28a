package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the agent needs from the remote service's token. The
// signature is not checked here: the agent does not hold the signing key,
// and the remote service validates the token on every call.
type Claims struct {
	UserID    string
	UserName  string
	ExpiresAt time.Time
}

var userIDClaims = []string{
	"user_id",
	"userId",
	"nameid",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	"id",
	"sub",
}

var userNameClaims = []string{
	"user_name",
	"unique_name",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	"name",
}

func ParseClaims(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, mc); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &Claims{
		UserID:   firstString(mc, userIDClaims),
		UserName: firstString(mc, userNameClaims),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Expired reports whether the token carried an expiry that is before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

func firstString(mc jwt.MapClaims, keys []string) string {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
