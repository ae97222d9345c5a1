package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はアクセストークンのクレームを表す。
// subにアカウントIDを格納する。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenIssuer はHS256署名のアクセストークンを発行・検証する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue はアカウントIDとメールアドレスを含む署名付きトークンを生成する。
func (t *TokenIssuer) Issue(identityID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、アカウントIDとメールアドレスを返す。
// 署名不正・期限切れ・subなしはすべてエラーとなる。
func (t *TokenIssuer) Verify(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// 署名方式の検証
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", "", errors.New("token missing subject")
	}

	return claims.Subject, claims.Email, nil
}
