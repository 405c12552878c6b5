package nxrm2

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/aras-services/nxrm2-portal-bridge/internal/logging"
)

// Fallback records any request that doesn't match one of the known NXRM2
// routes, then returns an empty 404 — plugins probing for optional
// endpoints tolerate this without aborting the release.
func (h *Handler) Fallback(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, int64(h.TraceBodyCap)))

	h.Logger.Log(logging.TraceLevel, "unhandled nxrm2 request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Any("headers", redactHeaders(r.Header)),
		zap.ByteString("body", body),
	)

	w.WriteHeader(http.StatusNotFound)
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") && len(v) > 0 {
			scheme := strings.SplitN(v[0], " ", 2)[0]
			out[k] = scheme + " <redacted>"
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}
