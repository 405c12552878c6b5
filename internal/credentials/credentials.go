// Package credentials implements the credential extractor (C1): turning an
// incoming Authorization header into a (username, token) pair, a stable
// fingerprint for ownership checks, and a Basic header value built from that
// pair to forward to the Portal.
package credentials

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

type Credentials struct {
	Username    string
	Token       string
	Fingerprint string
	// AuthHeader is the exact Authorization header value to forward to the
	// Portal for this request's credentials.
	AuthHeader string
}

type Extractor struct {
	salt   []byte
	bearer *BearerVerifier
}

// NewExtractor builds an extractor. bearer may be nil, in which case only
// Basic authentication is accepted.
func NewExtractor(fingerprintSalt string, bearer *BearerVerifier) *Extractor {
	return &Extractor{salt: []byte(fingerprintSalt), bearer: bearer}
}

func (e *Extractor) Extract(r *http.Request) (Credentials, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Credentials{}, domain.NewError(domain.KindUnauthorized, "missing Authorization header")
	}

	switch {
	case e.bearer != nil && strings.HasPrefix(header, "Bearer "):
		claims, err := e.bearer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return Credentials{}, domain.Wrap(domain.KindUnauthorized, "invalid bearer token", err)
		}
		return e.build(claims.Subject, claims.PortalToken), nil

	case strings.HasPrefix(header, "Basic "):
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		if err != nil {
			return Credentials{}, domain.NewError(domain.KindUnauthorized, "malformed Authorization header")
		}
		parts := strings.SplitN(string(raw), ":", 2)
		if len(parts) != 2 {
			return Credentials{}, domain.NewError(domain.KindUnauthorized, "malformed Authorization header")
		}
		return e.build(parts[0], parts[1]), nil

	default:
		return Credentials{}, domain.NewError(domain.KindUnauthorized, "unsupported Authorization scheme")
	}
}

// build constructs the credential set from a canonical (username, token)
// pair regardless of whether it came from a Basic header or bearer claims,
// so the fingerprint and the header forwarded to the Portal are always
// derived the same way.
func (e *Extractor) build(username, token string) Credentials {
	return Credentials{
		Username:    username,
		Token:       token,
		Fingerprint: e.fingerprint(username, token),
		AuthHeader:  "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+token)),
	}
}

func (e *Extractor) fingerprint(username, token string) string {
	mac := hmac.New(sha256.New, e.salt)
	mac.Write([]byte(username))
	mac.Write([]byte{0})
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
