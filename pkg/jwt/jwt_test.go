package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("remote-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name     string
		claims   jwt.MapClaims
		wantID   string
		wantName string
	}{
		{
			name:   "subject",
			claims: jwt.MapClaims{"sub": "user-123", "exp": exp.Unix()},
			wantID: "user-123",
		},
		{
			name:     "dotnet name identifier",
			claims:   jwt.MapClaims{"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier": "42", "unique_name": "ada", "exp": exp.Unix()},
			wantID:   "42",
			wantName: "ada",
		},
		{
			name:   "numeric id",
			claims: jwt.MapClaims{"id": 17, "exp": exp.Unix()},
			wantID: "17",
		},
		{
			name:   "user_id wins over sub",
			claims: jwt.MapClaims{"user_id": "9", "sub": "ada@example.com", "exp": exp.Unix()},
			wantID: "9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseClaims(signed(t, tt.claims))
			if err != nil {
				t.Fatalf("ParseClaims() error = %v", err)
			}
			if claims.UserID != tt.wantID {
				t.Errorf("UserID = %q, want %q", claims.UserID, tt.wantID)
			}
			if claims.UserName != tt.wantName {
				t.Errorf("UserName = %q, want %q", claims.UserName, tt.wantName)
			}
			if !claims.ExpiresAt.Equal(exp) {
				t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp)
			}
		})
	}
}

func TestParseClaims_Invalid(t *testing.T) {
	for _, token := range []string{"", "invalid.token.format", "Bearer "} {
		if _, err := ParseClaims(token); err == nil {
			t.Errorf("ParseClaims(%q) expected error", token)
		}
	}
}

func TestParseClaims_BearerPrefix(t *testing.T) {
	token := signed(t, jwt.MapClaims{"sub": "u1"})

	claims, err := ParseClaims("Bearer " + token)
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", claims.UserID)
	}
}

func TestClaims_Expired(t *testing.T) {
	now := time.Now()

	expired, err := ParseClaims(signed(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(-time.Hour).Unix()}))
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if !expired.Expired(now) {
		t.Error("expected token to be expired")
	}

	noExp, err := ParseClaims(signed(t, jwt.MapClaims{"sub": "u1"}))
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if noExp.Expired(now) {
		t.Error("token without exp should never be expired")
	}
}

func BenchmarkParseClaims(b *testing.B) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bench"}).SignedString([]byte("k"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseClaims(token); err != nil {
			b.Fatalf("ParseClaims() error = %v", err)
		}
	}
}
