// Package sessiontoken mints and verifies the HS256 bearer tokens issued by the dev
// registry server.
package sessiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gatepass-registry/gatepass/internal/platform/config"
	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
)

var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	Role   string `json:"role"`
	Mobile string `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	skew   time.Duration
	clk    clockport.Clock
}

func New(cfg config.DevServerConfig, clk clockport.Clock) *Issuer {
	return &Issuer{
		secret: []byte(cfg.TokenSecret),
		issuer: cfg.TokenIssuer,
		ttl:    cfg.TokenTTL,
		skew:   cfg.ClockSkew,
		clk:    clk,
	}
}

// Mint issues a token for subject holding role.
func (i *Issuer) Mint(subject, role, mobile string) (string, error) {
	now := i.clk.Now()
	claims := Claims{
		Role:   role,
		Mobile: mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature, issuer and expiry. Every failure is ErrUnauthorized.
func (i *Issuer) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithLeeway(i.skew),
		jwt.WithTimeFunc(i.clk.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return Claims{}, ErrUnauthorized
	}
	return claims, nil
}
