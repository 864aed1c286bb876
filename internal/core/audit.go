package core

import "time"

type AuditEntry struct {
	// ID is the correlation ID of the invocation
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "token.issue")
	Action string `json:"action"`

	// AppID is the GitHub App that requested the token
	AppID string `json:"app_id"`

	// Owner and Repository identify the requested repository
	Owner      string `json:"owner"`
	Repository string `json:"repository"`

	// InstallationID is set once the installation was resolved
	InstallationID int64 `json:"installation_id,omitempty"`

	// RequestedPermissions is empty if no down-scoping was requested
	RequestedPermissions map[string]string `json:"requested_permissions,omitempty"`

	// Decision details
	Granted bool   `json:"granted"`
	State   string `json:"state"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`

	// TokenFingerprint matches the "hashed_token" field of GitHub's audit log
	TokenFingerprint string `json:"token_fingerprint,omitempty"`

	// Messages are the status lines shown to the operator during the issuance
	Messages []string `json:"messages,omitempty"`

	// Metadata contains credential details (never the token)
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
