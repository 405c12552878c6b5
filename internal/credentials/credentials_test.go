package credentials

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestExtract_Basic(t *testing.T) {
	e := NewExtractor("salt", nil)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", basicHeader("alice", "token-a"))

	creds, err := e.Extract(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "token-a", creds.Token)
	assert.NotEmpty(t, creds.Fingerprint)
	assert.Equal(t, basicHeader("alice", "token-a"), creds.AuthHeader)
}

func TestExtract_MissingHeader(t *testing.T) {
	e := NewExtractor("salt", nil)
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	_, err := e.Extract(r)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
}

func TestExtract_MalformedBasic(t *testing.T) {
	e := NewExtractor("salt", nil)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Basic not-base64!!")

	_, err := e.Extract(r)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
}

func TestExtract_UnsupportedScheme(t *testing.T) {
	e := NewExtractor("salt", nil)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Digest whatever")

	_, err := e.Extract(r)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
}

func TestExtract_BearerWithoutVerifierFallsThrough(t *testing.T) {
	e := NewExtractor("salt", nil)
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", "Bearer sometoken")

	_, err := e.Extract(r)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
}

func TestFingerprint_DeterministicAndSaltSensitive(t *testing.T) {
	e1 := NewExtractor("salt-one", nil)
	e2 := NewExtractor("salt-two", nil)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Authorization", basicHeader("bob", "secret"))

	c1a, err := e1.Extract(r)
	require.NoError(t, err)
	c1b, err := e1.Extract(r)
	require.NoError(t, err)
	c2, err := e2.Extract(r)
	require.NoError(t, err)

	assert.Equal(t, c1a.Fingerprint, c1b.Fingerprint, "fingerprint must be stable across calls")
	assert.NotEqual(t, c1a.Fingerprint, c2.Fingerprint, "fingerprint must depend on the salt")
}

func TestFingerprint_DifferentUsersDoNotCollide(t *testing.T) {
	e := NewExtractor("salt", nil)

	r1 := httptest.NewRequest(http.MethodPost, "/", nil)
	r1.Header.Set("Authorization", basicHeader("ab", "ctoken"))
	r2 := httptest.NewRequest(http.MethodPost, "/", nil)
	r2.Header.Set("Authorization", basicHeader("a", "bctoken"))

	c1, err := e.Extract(r1)
	require.NoError(t, err)
	c2, err := e.Extract(r2)
	require.NoError(t, err)

	assert.NotEqual(t, c1.Fingerprint, c2.Fingerprint, "the separator byte must prevent username/token boundary collisions")
}
