package auth_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"projectTracker/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims auth.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

// TestVerifier_Verify тестирует проверку токенов
func TestVerifier_Verify(t *testing.T) {
	userID := primitive.NewObjectID()
	valid := auth.Claims{
		Name:  "Alice",
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	badSubject := valid
	badSubject.Subject = "alice"

	byID := valid
	byID.Subject = ""
	byID.UserID = userID.Hex()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid subject", sign(t, jwt.SigningMethodHS256, []byte(secret), valid), nil},
		{"valid id claim", sign(t, jwt.SigningMethodHS256, []byte(secret), byID), nil},
		{"empty", "", auth.ErrNoToken},
		{"garbage", "not.a.token", auth.ErrInvalidToken},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), valid), auth.ErrInvalidToken},
		{"wrong method", sign(t, jwt.SigningMethodHS512, []byte(secret), valid), auth.ErrInvalidToken},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), expired), auth.ErrInvalidToken},
		{"bad subject", sign(t, jwt.SigningMethodHS256, []byte(secret), badSubject), auth.ErrInvalidToken},
	}

	verifier := auth.NewVerifier(secret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := verifier.Verify(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, id.UserID)
			assert.Equal(t, "Alice", id.Name)
			assert.Equal(t, "alice@example.com", id.Email)
		})
	}
}

// TestVerifier_Issuer проверяет ограничение по издателю
func TestVerifier_Issuer(t *testing.T) {
	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: primitive.NewObjectID().Hex(),
		Issuer:  "someone-else",
	}}
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), claims)

	_, err := auth.NewVerifier(secret, auth.WithIssuer("tracker")).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewVerifier(secret).Verify(token)
	assert.NoError(t, err)
}

// TestTokenFromRequest тестирует извлечение токена
func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects", nil)
	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", auth.TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	assert.Equal(t, "xyz", auth.TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/projects", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", auth.TokenFromRequest(r))
}

// TestContext тестирует передачу identity через контекст
func TestContext(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	id := auth.Identity{UserID: primitive.NewObjectID()}
	got, ok := auth.FromContext(auth.WithIdentity(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}
