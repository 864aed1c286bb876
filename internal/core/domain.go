package core

import (
	"fmt"
	"time"
)

// AssertionLifetime is the validity window of an app assertion.
// GitHub rejects app JWTs that expire more than 10 minutes after issuance.
const AssertionLifetime = 10 * time.Minute

// ApplicationIdentity is the registered GitHub App whose private key signs assertions.
// It is created once per invocation and passed explicitly to every component.
type ApplicationIdentity struct {
	// ID is the GitHub App ID (or client ID), used as the assertion issuer.
	ID string

	// KeyMaterial is the PEM-encoded private key of the App.
	KeyMaterial []byte
}

// String never includes the key material.
func (a ApplicationIdentity) String() string {
	return fmt.Sprintf("app(%s)", a.ID)
}

// Assertion is a short-lived signed JWT proving the identity of the App.
// It is only used to look up the installation and to exchange it for an installation token.
type Assertion struct {
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Token is the compact, signed JWT.
	Token string
}

// Valid reports whether the assertion is still usable at the given time.
func (a *Assertion) Valid(now time.Time) bool {
	return a != nil && a.Token != "" && now.Before(a.ExpiresAt)
}

// TargetType is the kind of account an installation is bound to.
type TargetType string

const (
	TargetRepository   TargetType = "Repository"
	TargetOrganization TargetType = "Organization"
	TargetUser         TargetType = "User"
)

// InstallationBinding connects the App to the account owning the target repository.
type InstallationBinding struct {
	InstallationID int64
	TargetType     TargetType
}

// AccessLevel is the access granted for a single permission (e.g. "read").
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// PermissionScope maps a permission name (e.g. "contents") to its access level.
//
// A nil scope means that no restriction was requested and the installation defaults apply.
// A non-nil, empty scope is a distinct state which GitHub rejects.
type PermissionScope map[string]AccessLevel

// Clone returns a copy of the scope, preserving nil.
func (p PermissionScope) Clone() PermissionScope {
	if p == nil {
		return nil
	}
	out := make(PermissionScope, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// StringMap converts the scope into a plain string map.
func (p PermissionScope) StringMap() map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = string(v)
	}
	return out
}

// ScopeFromStringMap is the inverse of PermissionScope.StringMap.
func ScopeFromStringMap(m map[string]string) PermissionScope {
	if m == nil {
		return nil
	}
	out := make(PermissionScope, len(m))
	for k, v := range m {
		out[k] = AccessLevel(v)
	}
	return out
}

// ResourceRestriction limits a token to the named repositories.
type ResourceRestriction []string

// RestrictTo returns a restriction containing only the given repository.
func RestrictTo(repository string) ResourceRestriction {
	return ResourceRestriction{repository}
}

// TokenRequest describes the installation token to request.
type TokenRequest struct {
	InstallationID int64
	Repositories   ResourceRestriction

	// Permissions is nil if no down-scoping was requested.
	Permissions PermissionScope
}
