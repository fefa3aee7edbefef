package domain

import "errors"

var (
	// ErrSchemaFetch signals that the remote field listing failed. Nothing is
	// cached on this path, so the next call retries.
	ErrSchemaFetch = errors.New("failed to fetch field schema")

	// ErrNoIssueTypes signals a project with zero creatable issue types. Fatal
	// for that project, not retryable.
	ErrNoIssueTypes = errors.New("project has no available issue types")

	// ErrMissingProjectKey is a caller precondition violation: a payload was
	// requested without a project key.
	ErrMissingProjectKey = errors.New("project key is required")
)
