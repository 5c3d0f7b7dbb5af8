package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"projectTracker/internal/models/user"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoToken      = errors.New("токен не передан")
	ErrInvalidToken = errors.New("недействительный токен")
)

type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
	Avatar string
}

func (id Identity) Summary() user.Summary {
	return user.Summary{
		ID:     id.UserID,
		Name:   id.Name,
		Email:  id.Email,
		Avatar: id.Avatar,
	}
}

// id пользователя берется из claim "id", иначе из sub
type Claims struct {
	UserID string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

type VerifierOption func(*Verifier)

func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) {
		v.issuer = issuer
	}
}

func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.leeway = leeway
	}
}

func NewVerifier(secret string, options ...VerifierOption) *Verifier {
	v := &Verifier{secret: []byte(secret)}
	for _, opt := range options {
		opt(v)
	}
	return v
}

func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOptions...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	}
	userID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: некорректный идентификатор пользователя", ErrInvalidToken)
	}

	return Identity{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
		Avatar: claims.Avatar,
	}, nil
}

// для websocket токен можно передать в ?token=
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
