package bundle

import (
	"path"
	"strings"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

// sanitizeRelPath rejects absolute paths and any ".." segment before the
// path ever touches the filesystem, then returns the cleaned form. Cleaning
// alone (path.Clean("/"+p)) would silently neutralize a traversal attempt
// instead of rejecting it, which is not what PathEscape is for.
func sanitizeRelPath(p string) (string, error) {
	if p == "" {
		return "", domain.NewError(domain.KindPathEscape, "empty relative path")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", domain.NewError(domain.KindPathEscape, "path escapes bundle root")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", domain.NewError(domain.KindPathEscape, "path escapes bundle root")
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.NewError(domain.KindPathEscape, "path escapes bundle root")
	}
	return cleaned, nil
}
