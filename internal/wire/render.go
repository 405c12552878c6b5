package wire

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

// Negotiate picks a wire format from Accept. XML is the default because
// that is what the legacy publishing plugins this proxy exists for expect.
func Negotiate(r *http.Request) string {
	if strings.Contains(r.Header.Get("Accept"), "json") {
		return "json"
	}
	return "xml"
}

func Write(w http.ResponseWriter, r *http.Request, status int, body any) {
	if Negotiate(r) == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(body)
}

// WriteError renders err as an NXRM2 error envelope, except NotFound which
// NXRM2 clients expect as an empty 404 body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.Error
	status := http.StatusInternalServerError
	msg := "internal error"
	if errors.As(err, &derr) {
		status = derr.HTTPStatus()
		msg = derr.Message
	}
	if status == http.StatusNotFound {
		w.WriteHeader(status)
		return
	}
	Write(w, r, status, ErrorBody{Errors: []ErrorItem{{Msg: msg}}})
}
