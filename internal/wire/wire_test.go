package wire

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

func TestWrite_XMLByDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	Write(w, r, http.StatusOK, StatusBody{Data: StatusData{Version: "2.14.3-01"}})

	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), xml.Header))

	var got StatusBody
	require.NoError(t, xml.Unmarshal([]byte(strings.TrimPrefix(w.Body.String(), xml.Header)), &got))
	assert.Equal(t, "2.14.3-01", got.Data.Version)
}

func TestWrite_JSONWhenRequested(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	Write(w, r, http.StatusOK, StatusBody{Data: StatusData{Version: "2.14.3-01"}})

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got StatusBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "2.14.3-01", got.Data.Version)
}

func TestWriteError_NotFoundIsEmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, domain.NewError(domain.KindNotFound, "unknown staging repository"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestWriteError_RendersMessageForOtherKinds(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	WriteError(w, r, domain.NewError(domain.KindForbidden, "credential mismatch"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "credential mismatch", body.Errors[0].Msg)
}

func TestWriteError_NonDomainErrorIsInternal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	WriteError(w, r, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestParseFinishRequest_XMLAndJSON(t *testing.T) {
	xmlBody := `<promoteRequest><data><stagedRepositoryId>releases-1</stagedRepositoryId></data></promoteRequest>`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(xmlBody))
	r.Header.Set("Content-Type", "application/xml")

	id, err := ParseFinishRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "releases-1", id)

	jsonBody := `{"data":{"stagedRepositoryId":"releases-2"}}`
	r2 := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(jsonBody))
	r2.Header.Set("Content-Type", "application/json")

	id2, err := ParseFinishRequest(r2)
	require.NoError(t, err)
	assert.Equal(t, "releases-2", id2)
}

func TestParseFinishRequest_MissingIDIsRejected(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":{}}`))
	r.Header.Set("Content-Type", "application/json")

	_, err := ParseFinishRequest(r)
	require.Error(t, err)
}

func TestParseBulkRequest_RequiresAtLeastOneID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":{"stagedRepositoryIds":[]}}`))
	r.Header.Set("Content-Type", "application/json")

	_, err := ParseBulkRequest(r)
	require.Error(t, err)
}

func TestParseBulkRequest_Accepts(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":{"stagedRepositoryIds":["a-1","a-2"]}}`))
	r.Header.Set("Content-Type", "application/json")

	data, err := ParseBulkRequest(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2"}, data.StagedRepositoryIDs)
}
