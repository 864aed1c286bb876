package core

import (
	"fmt"
	"strings"
	"time"
)

// IssuedCredential is the result of a successful issuance.
// The token must never be logged. Use String() or the metadata fields instead.
type IssuedCredential struct {
	// Token is the installation access token (ghs_...).
	Token string `json:"-"`

	// ExpiresAt indicates when this token becomes invalid.
	ExpiresAt time.Time `json:"expires_at"`

	// Permissions are the permissions GitHub granted to the token.
	Permissions PermissionScope `json:"permissions,omitempty"`

	// RepositorySelection is either "all" or "selected".
	RepositorySelection string `json:"repository_selection,omitempty"`

	// Repositories are the names of the repositories the token is restricted to, if GitHub returned them.
	Repositories []string `json:"repositories,omitempty"`
}

func (c *IssuedCredential) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("credential(expires=%s, selection=%s, repositories=[%s], permissions=%d)",
		c.ExpiresAt.Format(time.RFC3339),
		c.RepositorySelection,
		strings.Join(c.Repositories, ","),
		len(c.Permissions))
}

// Metadata returns the non-secret fields, e.g. for audit entries.
func (c *IssuedCredential) Metadata() map[string]any {
	return map[string]any{
		"expires_at":           c.ExpiresAt,
		"permissions":          c.Permissions.StringMap(),
		"repository_selection": c.RepositorySelection,
		"repositories":         c.Repositories,
	}
}
