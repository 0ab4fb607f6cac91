package realtime

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SubscribeClaims authorize one connection (Client, the per-connection
// socket id) to subscribe to one channel.
type SubscribeClaims struct {
	jwt.RegisteredClaims

	Channel string `json:"channel"`
	Client  string `json:"client,omitempty"`
}

// TokenIssuer signs channel subscribe tokens the realtime gateway verifies.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// IssueSubscribeToken signs a token allowing socketID, owned by userID, to
// subscribe to the channel. Returns the token and its unix expiry.
func (i *TokenIssuer) IssueSubscribeToken(userID int64, socketID, channel string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	claims := SubscribeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Channel: channel,
		Client:  socketID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign subscribe token: %w", err)
	}
	return tokenString, expiresAt.Unix(), nil
}

// ValidateSubscribeToken parses and verifies a subscribe token.
func (i *TokenIssuer) ValidateSubscribeToken(tokenString string) (*SubscribeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SubscribeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse subscribe token: %w", err)
	}

	if claims, ok := token.Claims.(*SubscribeClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid subscribe token")
}
