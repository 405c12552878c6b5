// Package portalclient implements the Portal client (C6): uploading a
// sealed bundle as a single deployment and polling its status on a capped
// exponential backoff.
package portalclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/aras-services/nxrm2-portal-bridge/internal/bundle"
	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusPublished  Status = "PUBLISHED"
	StatusFailed     Status = "FAILED"
	StatusRejected   Status = "REJECTED"
)

// Credentials carries the Authorization header value sent to the Portal: a
// Basic header built from the client's (username, token) pair, which for a
// bearer-authenticated client comes from the token's claims.
type Credentials struct {
	AuthHeader string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.RandomizationFactor = 0.1
	return b
}

// Upload streams entries as a single multipart deployment and returns the
// Portal's deployment id. Transport errors and 5xx responses retry up to 5
// times on the backoff schedule; 4xx responses are permanent failures.
func (c *Client) Upload(ctx context.Context, creds Credentials, entries []bundle.Entry) (string, error) {
	// Generated once and reused across retries so the Portal can dedup
	// retried attempts of the same logical upload instead of creating
	// duplicate deployments.
	idempotencyKey := uuid.NewString()
	return backoff.Retry(ctx, func() (string, error) {
		id, httpStatus, err := c.doUpload(ctx, creds, idempotencyKey, entries)
		if err != nil {
			return "", err
		}
		if httpStatus >= 400 && httpStatus < 500 {
			return "", backoff.Permanent(domain.NewError(domain.KindPortalRejected,
				fmt.Sprintf("portal rejected upload: HTTP %d", httpStatus)))
		}
		if httpStatus >= 500 {
			return "", fmt.Errorf("portal transport error: HTTP %d", httpStatus)
		}
		return id, nil
	}, backoff.WithBackOff(c.newBackoff()), backoff.WithMaxTries(6))
}

func (c *Client) doUpload(ctx context.Context, creds Credentials, idempotencyKey string, entries []bundle.Entry) (string, int, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() {
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			err = mw.Close()
			pw.CloseWithError(err)
		}()
		for _, e := range entries {
			var part io.Writer
			part, err = mw.CreateFormFile("file", e.RelativePath)
			if err != nil {
				return
			}
			var rc io.ReadCloser
			rc, err = e.Open()
			if err != nil {
				return
			}
			_, err = io.Copy(part, rc)
			rc.Close()
			if err != nil {
				return
			}
			if err = mw.WriteField("checksum."+e.RelativePath, e.Hash); err != nil {
				return
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/components", pr)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", creds.AuthHeader)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	var parsed struct {
		DeploymentID string `json:"deploymentId"`
	}
	if resp.StatusCode < 300 {
		if decErr := json.NewDecoder(resp.Body).Decode(&parsed); decErr != nil {
			return "", resp.StatusCode, decErr
		}
	}
	return parsed.DeploymentID, resp.StatusCode, nil
}

func (c *Client) getStatus(ctx context.Context, deploymentID string) (Status, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/status/"+deploymentID, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	var parsed struct {
		DeploymentState string `json:"deploymentState"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return Status(parsed.DeploymentState), resp.StatusCode, nil
}

// CloseStatus returns a single observed status for the deployment, used
// right after upload to decide whether the session becomes Closed or
// Failed. It retries transport errors but does not wait for a terminal
// Portal status — that happens later, in AwaitRelease.
func (c *Client) CloseStatus(ctx context.Context, deploymentID string) (Status, error) {
	return backoff.Retry(ctx, func() (Status, error) {
		status, httpStatus, err := c.getStatus(ctx, deploymentID)
		if err != nil {
			return "", err
		}
		if httpStatus >= 400 && httpStatus < 500 {
			return "", backoff.Permanent(domain.NewError(domain.KindPortalRejected,
				fmt.Sprintf("portal rejected status check: HTTP %d", httpStatus)))
		}
		if httpStatus >= 500 {
			return "", fmt.Errorf("portal transport error: HTTP %d", httpStatus)
		}
		return status, nil
	}, backoff.WithBackOff(c.newBackoff()), backoff.WithMaxTries(6))
}

// AwaitRelease polls until the deployment reaches a truly terminal status
// (PUBLISHED, FAILED or REJECTED), used by the promote flow.
func (c *Client) AwaitRelease(ctx context.Context, deploymentID string) (Status, error) {
	return backoff.Retry(ctx, func() (Status, error) {
		status, httpStatus, err := c.getStatus(ctx, deploymentID)
		if err != nil {
			return "", err
		}
		if httpStatus >= 400 && httpStatus < 500 {
			return "", backoff.Permanent(domain.NewError(domain.KindPortalRejected,
				fmt.Sprintf("portal rejected status check: HTTP %d", httpStatus)))
		}
		switch status {
		case StatusPublished, StatusFailed, StatusRejected:
			return status, nil
		default:
			return "", fmt.Errorf("deployment %s not yet terminal: %s", deploymentID, status)
		}
	}, backoff.WithBackOff(c.newBackoff()))
}
