package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

func TestSanitizeRelPath_Accepts(t *testing.T) {
	tests := map[string]string{
		"com/example/lib/1.0/lib-1.0.jar": "com/example/lib/1.0/lib-1.0.jar",
		"./a/b":                           "a/b",
		"a//b":                            "a/b",
	}
	for in, want := range tests {
		got, err := sanitizeRelPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestSanitizeRelPath_RejectsEscapes(t *testing.T) {
	tests := []string{
		"",
		"/etc/passwd",
		"../escape",
		"a/../../escape",
		"a/..",
		"..\\windows",
		"a\\b",
	}
	for _, in := range tests {
		_, err := sanitizeRelPath(in)
		require.Error(t, err, in)
		assert.True(t, domain.IsKind(err, domain.KindPathEscape), in)
	}
}
