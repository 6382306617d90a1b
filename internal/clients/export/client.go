package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"employee-export/internal/identity"
)

// Client represents the employee export REST client
type Client struct {
	baseURL        string
	httpClient     *http.Client
	identityHeader string
}

// NewClient creates a client for the service at baseURL, e.g.
// http://localhost:8000/api
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetIdentity makes every request carry an x-rh-identity header for the
// given org and user. The server then owns submitted jobs by userID.
func (c *Client) SetIdentity(orgID, userID string) error {
	header, err := identity.GenerateIdentityHeader(orgID, userID)
	if err != nil {
		return err
	}
	c.identityHeader = header
	return nil
}

func (c *Client) createRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.identityHeader != "" {
		req.Header.Set(identity.HeaderName, c.identityHeader)
	}

	return req, nil
}

// do executes req and returns the response with its body fully read
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Errors = errResp.Errors
		}
		return resp, body, apiErr
	}
	return resp, body, nil
}

func (c *Client) doJSON(req *http.Request, result interface{}) error {
	_, body, err := c.do(req)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// Submit queues a new export
func (c *Client) Submit(ctx context.Context, req ExportRequest) (*SubmitResponse, error) {
	httpReq, err := c.createRequest(ctx, http.MethodPost, "/exports", req)
	if err != nil {
		return nil, err
	}

	var result SubmitResponse
	if err := c.doJSON(httpReq, &result); err != nil {
		return nil, fmt.Errorf("failed to submit export: %w", err)
	}
	return &result, nil
}

// Status retrieves the status of an export without downloading it
func (c *Client) Status(ctx context.Context, referenceID string) (*StatusResponse, error) {
	endpoint := "/exports/" + url.PathEscape(referenceID) + "?download=false"

	req, err := c.createRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result StatusResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to get export status: %w", err)
	}
	return &result, nil
}

// Download fetches the artifact of a completed export. For any other
// status it returns a *NotReadyError carrying that status.
func (c *Client) Download(ctx context.Context, referenceID string) (*Artifact, error) {
	req, err := c.createRequest(ctx, http.MethodGet, "/exports/"+url.PathEscape(referenceID), nil)
	if err != nil {
		return nil, err
	}

	resp, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var status StatusResponse
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return nil, &NotReadyError{Status: status}
	}

	artifact := &Artifact{
		Filename:    "export_" + referenceID,
		ContentType: contentType,
		Data:        body,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		artifact.Filename = params["filename"]
	}
	if total, err := strconv.Atoi(resp.Header.Get("X-Total-Records")); err == nil {
		artifact.TotalRecords = total
	}
	if created, err := time.Parse(time.RFC3339, resp.Header.Get("X-Created-At")); err == nil {
		artifact.CreatedAt = created
	}
	return artifact, nil
}

// List retrieves every export, or only those owned by userID when set
func (c *Client) List(ctx context.Context, userID string) ([]ExportSummary, error) {
	endpoint := "/exports"
	if userID != "" {
		endpoint += "/user/" + url.PathEscape(userID)
	}

	req, err := c.createRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result []ExportSummary
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return result, nil
}

// Cancel cancels a PENDING export
func (c *Client) Cancel(ctx context.Context, referenceID string) (*CancelResponse, error) {
	req, err := c.createRequest(ctx, http.MethodDelete, "/exports/"+url.PathEscape(referenceID), nil)
	if err != nil {
		return nil, err
	}

	var result CancelResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to cancel export: %w", err)
	}
	return &result, nil
}

// WaitForCompletion polls Status until the export reaches a terminal
// state or ctx is done
func (c *Client) WaitForCompletion(ctx context.Context, referenceID string, interval time.Duration) (*StatusResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, referenceID)
		if err != nil {
			return nil, err
		}
		if status.Status == StatusCompleted || status.Status == StatusFailed {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
