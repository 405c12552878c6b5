package credentials

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// portalClaims carries the publishing identity inside a bearer token: the
// subject is forwarded as the Basic username, PortalToken as the password
// equivalent the Portal actually authenticates against.
type portalClaims struct {
	jwt.RegisteredClaims
	PortalToken string `json:"portal_token"`
}

// BearerVerifier implements the optional bearer-token mode from the
// credential extractor's spec: when configured, clients may present a
// signed JWT instead of Basic auth.
type BearerVerifier struct {
	publicKey *rsa.PublicKey
}

func NewBearerVerifier(publicKeyPath string) (*BearerVerifier, error) {
	pem, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading JWT public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing JWT public key: %w", err)
	}
	return &BearerVerifier{publicKey: key}, nil
}

func (b *BearerVerifier) Verify(tokenString string) (*portalClaims, error) {
	claims := &portalClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return b.publicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.PortalToken == "" {
		return nil, fmt.Errorf("token is missing the portal_token claim")
	}
	return claims, nil
}
