// Package wire holds the NXRM2 request/response shapes. Each body is a
// single tagged struct carrying both xml and json tags; Write and
// decodeRequest pick the encoding, so there is exactly one record type per
// message instead of parallel XML and JSON structs.
package wire

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func decodeRequest(r *http.Request, target any) error {
	defer r.Body.Close()
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return json.NewDecoder(r.Body).Decode(target)
	}
	return xml.NewDecoder(r.Body).Decode(target)
}

type PromoteRequestData struct {
	Description        string `xml:"description" json:"description" validate:"omitempty"`
	StagedRepositoryID string `xml:"stagedRepositoryId,omitempty" json:"stagedRepositoryId,omitempty"`
}

type PromoteRequest struct {
	XMLName xml.Name           `xml:"promoteRequest" json:"-"`
	Data    PromoteRequestData `xml:"data" json:"data"`
}

// finishRequestData requires StagedRepositoryID, unlike PromoteRequestData
// which is also used by Start where the id doesn't exist yet.
type finishRequestData struct {
	Description        string `xml:"description" json:"description"`
	StagedRepositoryID string `xml:"stagedRepositoryId" json:"stagedRepositoryId" validate:"required"`
}

type finishRequest struct {
	XMLName xml.Name          `xml:"promoteRequest" json:"-"`
	Data    finishRequestData `xml:"data" json:"data"`
}

type StagingActionData struct {
	StagedRepositoryIDs  []string `xml:"stagedRepositoryIds>string" json:"stagedRepositoryIds" validate:"required,min=1,dive,required"`
	Description          string   `xml:"description" json:"description"`
	AutoDropAfterRelease bool     `xml:"autoDropAfterRelease" json:"autoDropAfterRelease"`
}


type StagingActionRequest struct {
	XMLName xml.Name          `xml:"stagingActionRequest" json:"-"`
	Data    StagingActionData `xml:"data" json:"data"`
}

// ParseStartRequest reads the description from a start request body.
func ParseStartRequest(r *http.Request) (string, error) {
	var req PromoteRequest
	if err := decodeRequest(r, &req); err != nil {
		return "", err
	}
	if err := validate.Struct(req.Data); err != nil {
		return "", err
	}
	return req.Data.Description, nil
}

// ParseFinishRequest reads the staged repository id being closed.
func ParseFinishRequest(r *http.Request) (string, error) {
	var req finishRequest
	if err := decodeRequest(r, &req); err != nil {
		return "", err
	}
	if err := validate.Struct(req.Data); err != nil {
		return "", err
	}
	return req.Data.StagedRepositoryID, nil
}

// ParseBulkRequest reads a bulk close/promote request body.
func ParseBulkRequest(r *http.Request) (StagingActionData, error) {
	var req StagingActionRequest
	if err := decodeRequest(r, &req); err != nil {
		return StagingActionData{}, err
	}
	if err := validate.Struct(req.Data); err != nil {
		return StagingActionData{}, err
	}
	return req.Data, nil
}
