package authUtils

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// Identity is what the external identity provider vouches for.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

type identityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.StandardClaims
}

// IdentityVerifier checks identity-provider tokens signed with a shared
// HMAC secret. An empty issuer accepts any issuer.
type IdentityVerifier struct {
	secret []byte
	issuer string
}

func NewIdentityVerifier(secret, issuer string) *IdentityVerifier {
	return &IdentityVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *IdentityVerifier) Verify(tokenString string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: identity verification is not configured", ErrInvalidToken)
	}
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{Subject: claims.Subject, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}
