// Package jira is a minimal REST client for the tracker endpoints the import
// pipeline needs: field listing, create metadata, and issue creation.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SubmissionError reports a non-201 response from the issue endpoint. The
// server-reported detail is preserved so it can surface in per-row outcomes.
type SubmissionError struct {
	StatusCode int
	Detail     string
}

func (e *SubmissionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("issue creation failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("issue creation failed with status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to a Jira-compatible REST API using basic auth.
type Client struct {
	baseURL  string
	username string
	apiToken string
	http     *http.Client
}

// NewClient creates a client for the given base URL and credentials.
func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		apiToken: apiToken,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// ListFields fetches every field definition visible to the configured user.
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := c.get(ctx, "/rest/api/3/field", &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetCreateMeta fetches the create metadata for one project, expanded down to
// the per-issue-type field sets.
func (c *Client) GetCreateMeta(ctx context.Context, projectKey string) (CreateMetaResponse, error) {
	var meta CreateMetaResponse
	path := "/rest/api/3/issue/createmeta?projectKeys=" + url.QueryEscape(projectKey) +
		"&expand=projects.issuetypes.fields"
	if err := c.get(ctx, path, &meta); err != nil {
		return CreateMetaResponse{}, err
	}
	return meta, nil
}

// CreateIssue posts a create request. Anything other than 201 is returned as a
// *SubmissionError carrying the server's error detail.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (IssueCreateResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return IssueCreateResult{}, fmt.Errorf("failed to encode issue payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/api/3/issue", bytes.NewReader(body))
	if err != nil {
		return IssueCreateResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.SetBasicAuth(c.username, c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return IssueCreateResult{}, fmt.Errorf("issue creation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return IssueCreateResult{}, &SubmissionError{
			StatusCode: resp.StatusCode,
			Detail:     readErrorDetail(resp.Body),
		}
	}

	var result IssueCreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return IssueCreateResult{}, fmt.Errorf("failed to decode creation response: %w", err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// readErrorDetail flattens the tracker's error body into a single string so it
// can be reported in a per-row outcome. Unparseable bodies are used verbatim.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed ErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		var parts []string
		parts = append(parts, parsed.ErrorMessages...)
		for field, message := range parsed.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, message))
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(raw))
}
