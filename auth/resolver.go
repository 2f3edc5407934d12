//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=../mocks/mock_identity_resolver.go -package=mocks
package auth

import (
	"fmt"
	"room-lab/domain"
	"room-lab/errors"
	"strings"
)

// IIdentityResolver turns a bearer token into a User.
type IIdentityResolver interface {
	Resolve(token string) (domain.User, error)
}

type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret}
}

// Resolve accepts the raw token or the "Bearer <token>" header form.
// Every failure is reported as ErrAuthFailure.
func (r *JWTResolver) Resolve(token string) (domain.User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: token is missing", errors.ErrAuthFailure)
	}
	claims, err := ValidateToken(token, r.secret)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrAuthFailure, err)
	}
	if claims.Username == "" {
		return domain.User{}, fmt.Errorf("%w: username claim is empty", errors.ErrAuthFailure)
	}
	return domain.User{Username: claims.Username}, nil
}
