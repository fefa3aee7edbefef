package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientListFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/field" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		username, token, ok := r.BasicAuth()
		if !ok || username != "bot@example.com" || token != "secret" {
			t.Fatalf("expected basic auth credentials, got %q %q", username, token)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"summary","name":"Summary","custom":false,"schema":{"type":"string"}},
			{"id":"customfield_1","name":"Story Point Estimate","custom":true,"schema":{"type":"number","custom":"com.atlassian.jira.plugin.system.customfieldtypes:float"}}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot@example.com", "secret")
	fields, err := client.ListFields(context.Background())
	if err != nil {
		t.Fatalf("ListFields returned error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[1].ID != "customfield_1" || !fields[1].Custom {
		t.Fatalf("unexpected custom field: %+v", fields[1])
	}
	if fields[1].Schema.Type != "number" {
		t.Fatalf("expected number schema, got %s", fields[1].Schema.Type)
	}
}

func TestClientGetCreateMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/createmeta" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("projectKeys") != "PROJ" {
			t.Fatalf("expected projectKeys=PROJ, got %s", query.Get("projectKeys"))
		}
		if query.Get("expand") != "projects.issuetypes.fields" {
			t.Fatalf("expected field expansion, got %s", query.Get("expand"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"projects":[{"key":"PROJ","issuetypes":[{"name":"Task","fields":{"summary":{"name":"Summary"}}}]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot@example.com", "secret")
	meta, err := client.GetCreateMeta(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("GetCreateMeta returned error: %v", err)
	}
	if len(meta.Projects) != 1 || meta.Projects[0].Key != "PROJ" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if len(meta.Projects[0].IssueTypes) != 1 || meta.Projects[0].IssueTypes[0].Name != "Task" {
		t.Fatalf("unexpected issue types: %+v", meta.Projects[0].IssueTypes)
	}
}

func TestClientCreateIssueSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/3/issue" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if _, ok := body["fields"]; !ok {
			t.Fatalf("expected fields wrapper in body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"PROJ-42","self":"https://example/rest/api/3/issue/10001"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot@example.com", "secret")
	result, err := client.CreateIssue(context.Background(), CreateIssueRequest{
		Fields: map[string]any{"summary": "Fix bug"},
	})
	if err != nil {
		t.Fatalf("CreateIssue returned error: %v", err)
	}
	if result.Key != "PROJ-42" {
		t.Fatalf("expected issue key PROJ-42, got %s", result.Key)
	}
}

func TestClientCreateIssueReportsServerDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["Field 'priority' is required"],"errors":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot@example.com", "secret")
	_, err := client.CreateIssue(context.Background(), CreateIssueRequest{Fields: map[string]any{}})
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}

	var submission *SubmissionError
	if !errors.As(err, &submission) {
		t.Fatalf("expected *SubmissionError, got %T", err)
	}
	if submission.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", submission.StatusCode)
	}
	if !strings.Contains(submission.Detail, "priority") {
		t.Fatalf("expected server detail to be preserved, got %q", submission.Detail)
	}
}
