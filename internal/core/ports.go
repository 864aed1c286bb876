package core

import "context"

// AssertionSigner creates the signed app assertion.
type AssertionSigner interface {
	Sign(identity ApplicationIdentity) (*Assertion, error)
}

// InstallationResolver finds the installation of the App on a repository.
type InstallationResolver interface {
	ResolveInstallation(ctx context.Context, owner, repository string) (*InstallationBinding, error)
}

// TokenExchanger exchanges the app assertion for an installation token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, req TokenRequest) (*IssuedCredential, error)
}

// Platform is the single upstream client owned by one issuance.
// It is authenticated with the app assertion it was created for.
type Platform interface {
	InstallationResolver
	TokenExchanger
}

// PlatformFactory creates the Platform for an assertion.
// It must not perform network calls.
type PlatformFactory func(ctx context.Context, assertion *Assertion) (Platform, error)

// Reporter receives status output of an issuance.
// Info, Warn and Error must never be given secrets; secrets go to SetSecretOutput.
type Reporter interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)

	// SetSecretOutput hands a secret value to the designated secret channel.
	SetSecretOutput(name, value string)
}

// ProgressReporter is implemented by reporters which can display progress.
type ProgressReporter interface {
	Progress(percent int, message string)
}
