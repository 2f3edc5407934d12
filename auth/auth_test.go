package auth

import (
	"room-lab/domain"
	"room-lab/errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test_secret_long_enough_for_hs256")

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", secret, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token, secret)
	req.NoError(err)
	req.Equal("alice", claims.Username)
	req.Equal(issuer, claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken("alice", secret, time.Hour)
	req.NoError(err)

	_, err = ValidateToken(token, []byte("another_secret"))
	req.ErrorIs(err, jwt.ErrSignatureInvalid)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken("alice", secret, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token, secret)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestJWTResolver_Resolve(t *testing.T) {
	req := require.New(t)
	resolver := NewJWTResolver(secret)
	token, err := GenerateToken("bob", secret, time.Hour)
	req.NoError(err)

	// Raw token and header form both resolve
	user, err := resolver.Resolve(token)
	req.NoError(err)
	req.Equal(domain.User{Username: "bob"}, user)

	user, err = resolver.Resolve("Bearer " + token)
	req.NoError(err)
	req.Equal("bob", user.Username)
}

func TestJWTResolver_Failures(t *testing.T) {
	req := require.New(t)
	resolver := NewJWTResolver(secret)
	empty, err := GenerateToken("", secret, time.Hour)
	req.NoError(err)

	for _, token := range []string{"", "Bearer ", "not-a-jwt", empty} {
		_, err := resolver.Resolve(token)
		req.ErrorIs(err, errors.ErrAuthFailure, token)
	}
}

func TestNewParticipant_Validation(t *testing.T) {
	req := require.New(t)
	user := domain.User{Username: "alice"}

	tests := []struct {
		address string
		err     error
	}{
		{"127.0.0.1:9000", nil},
		{"player.local:8081", nil},
		{"http://player.local:8081/hook", nil},
		{"", errors.ErrInvalidAddress},
		{"no-port", errors.ErrInvalidAddress},
		{"ftp://player.local/hook", errors.ErrInvalidAddress},
	}
	for _, tt := range tests {
		participant, err := NewParticipant(user, tt.address)
		if tt.err != nil {
			req.ErrorIs(err, tt.err, tt.address)
			continue
		}
		req.NoError(err, tt.address)
		req.Equal(domain.Address(tt.address), participant.Address)
	}

	_, err := NewParticipant(domain.User{}, "127.0.0.1:9000")
	req.ErrorIs(err, errors.ErrInvalidUsername)
}

func TestValidateCreateRoom(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateCreateRoom("lobby", 4))
	req.ErrorIs(ValidateCreateRoom("lobby", 0), errors.ErrInvalidCapacity)
	req.ErrorIs(ValidateCreateRoom("", 2), errors.ErrInvalidRoomName)
}
