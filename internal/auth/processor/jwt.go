package processor

import (
	"autosales/internal/store"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidJWTToken = errors.New("invalid jwt token")
	ErrExpiredToken    = errors.New("token expired")
	ErrParseJWTToken   = errors.New("failed to parse jwt token")
)

// BaseClaims is the claim set carried by every issued token.
// Subject is the user's canonical id.
type BaseClaims struct {
	ExpirationTime *jwt.NumericDate `json:"exp"`
	IssuedAt       *jwt.NumericDate `json:"iat"`
	NotBefore      *jwt.NumericDate `json:"nbf"`
	Issuer         string           `json:"iss"`
	Subject        string           `json:"sub"`
	Audience       jwt.ClaimStrings `json:"aud"`
	Plan           string           `json:"plan"`
}

func (b *BaseClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return b.ExpirationTime, nil
}

func (b *BaseClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return b.IssuedAt, nil
}

func (b *BaseClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return b.NotBefore, nil
}

func (b *BaseClaims) GetIssuer() (string, error) {
	return b.Issuer, nil
}

func (b *BaseClaims) GetSubject() (string, error) {
	return b.Subject, nil
}

func (b *BaseClaims) GetAudience() (jwt.ClaimStrings, error) {
	return b.Audience, nil
}

func (p *AuthProcessor) generateJWTToken(user store.User) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour) // Token valid for 24 hours
	cl := jwt.New(jwt.SigningMethodHS256)
	claims := cl.Claims.(jwt.MapClaims)
	claims["sub"] = user.ID.String()
	claims["plan"] = user.Plan
	claims["iss"] = "autosales"
	claims["aud"] = "autosales"
	claims["exp"] = expirationTime.Unix()
	claims["iat"] = time.Now().Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(p.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (p *AuthProcessor) ValidateJWTToken(ctx context.Context, token string) (BaseClaims, error) {
	var baseClaims BaseClaims
	t, err := jwt.ParseWithClaims(token, &baseClaims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			p.logger.Error(ctx, "token expired", err)
			return BaseClaims{}, ErrExpiredToken
		}

		p.logger.Error(ctx, "failed to parse token", err)
		return BaseClaims{}, ErrParseJWTToken
	}
	if !t.Valid {
		return BaseClaims{}, ErrInvalidJWTToken
	}

	claims, ok := t.Claims.(*BaseClaims)
	if !ok {
		p.logger.Error(ctx, "failed to extract claims", err)
		return BaseClaims{}, ErrParseJWTToken
	}

	return *claims, nil
}
