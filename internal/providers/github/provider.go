package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v80/github"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/ghtoken/internal/audit"
	"github.com/darmiel/ghtoken/internal/core"
)

const Type = "github-app"

var (
	_ core.InstallationResolver = (*AppClient)(nil)
	_ core.TokenExchanger       = (*AppClient)(nil)
)

// AppClient talks to GitHub as the App, authenticated with exactly one assertion.
// It supports GitHub Cloud and GitHub Enterprise.
type AppClient struct {
	client *github.Client
}

// NewAppClient creates a client which uses the assertion as bearer token.
// No network calls are made.
func NewAppClient(assertion *core.Assertion, opts ClientOptions) (*AppClient, error) {
	if assertion == nil || assertion.Token == "" {
		return nil, fmt.Errorf("github app client requires a signed assertion")
	}
	client, err := NewRawClient(assertion.Token, opts)
	if err != nil {
		return nil, err
	}
	return &AppClient{client: client}, nil
}

// Factory returns a core.PlatformFactory which creates one AppClient per assertion.
// The User-Agent carries the correlation ID of the invocation for auditing.
func Factory(opts ClientOptions) core.PlatformFactory {
	return func(ctx context.Context, assertion *core.Assertion) (core.Platform, error) {
		o := opts
		if o.HTTPClient == nil {
			o.HTTPClient = &http.Client{}
		}
		o.UserAgent = audit.CreateUserAgent(core.CorrelationID(ctx), assertion.Issuer)
		return NewAppClient(assertion, o)
	}
}

// ResolveInstallation looks up the installation of the App on owner/repository.
func (c *AppClient) ResolveInstallation(ctx context.Context, owner, repository string) (*core.InstallationBinding, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("looking up installation for repository %s/%s", owner, repository)

	installation, resp, err := c.client.Apps.FindRepositoryInstallation(ctx, owner, repository)
	if err != nil {
		status, body, apiError := responseDetails(resp, err)
		if apiError && status == http.StatusNotFound {
			return nil, core.NewUpstreamError(core.ErrInstallationNotFound, err, status, body,
				"Failed to find installation for repository %s/%s (is the app installed?)", owner, repository)
		}
		if !apiError && resp != nil && isSuccess(status) {
			return nil, core.NewError(core.ErrMalformedResponse, err,
				"Failed to decode installation response for repository %s/%s", owner, repository)
		}
		return nil, core.NewUpstreamError(core.ErrUpstream, err, status, body,
			"Failed to find installation for repository %s/%s", owner, repository)
	}

	if installation.GetID() == 0 {
		return nil, core.NewError(core.ErrMalformedResponse, nil,
			"Installation response for repository %s/%s has no id", owner, repository)
	}

	binding := &core.InstallationBinding{
		InstallationID: installation.GetID(),
		TargetType:     core.TargetType(installation.GetTargetType()),
	}
	logger.Debug().
		Int64("installation_id", binding.InstallationID).
		Str("target_type", string(binding.TargetType)).
		Msg("retrieved installation")
	return binding, nil
}

// accessTokenRequest is the body of POST /app/installations/{id}/access_tokens.
// A nil Permissions pointer omits the field, a pointer to an empty scope sends {}.
type accessTokenRequest struct {
	Repositories []string              `json:"repositories"`
	Permissions  *core.PermissionScope `json:"permissions,omitempty"`
}

type accessTokenResponse struct {
	Token               string               `json:"token"`
	ExpiresAt           github.Timestamp     `json:"expires_at"`
	Permissions         core.PermissionScope `json:"permissions"`
	RepositorySelection string               `json:"repository_selection"`
	Repositories        []*github.Repository `json:"repositories"`
}

// ExchangeToken requests an installation token restricted to req.Repositories
// and, if requested, to req.Permissions.
func (c *AppClient) ExchangeToken(ctx context.Context, req core.TokenRequest) (*core.IssuedCredential, error) {
	logger := log.Ctx(ctx)

	if req.InstallationID == 0 {
		return nil, core.NewError(core.ErrExchangeFailure, nil, "no installation to create an access token for")
	}
	if len(req.Repositories) == 0 {
		// never ask for a token covering every repository of the installation
		return nil, core.NewError(core.ErrExchangeFailure, nil, "refusing to create an access token without repository restriction")
	}

	body := accessTokenRequest{
		Repositories: req.Repositories,
	}
	if req.Permissions != nil {
		perms := req.Permissions.Clone()
		body.Permissions = &perms
	}

	logger.Info().
		Str("provider", Type).
		Int64("installation_id", req.InstallationID).
		Strs("repositories", req.Repositories).
		Interface("permissions", req.Permissions).
		Msg("minting GitHub App installation token")

	u := fmt.Sprintf("app/installations/%d/access_tokens", req.InstallationID)
	httpReq, err := c.client.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return nil, core.NewError(core.ErrExchangeFailure, err, "Failed to create installation access token request")
	}

	var out accessTokenResponse
	resp, err := c.client.Do(ctx, httpReq, &out)
	if err != nil {
		status, respBody, apiError := responseDetails(resp, err)
		if !apiError && resp != nil && isSuccess(status) {
			return nil, core.NewError(core.ErrMalformedResponse, err,
				"Failed to deserialize installation access token response")
		}
		return nil, core.NewUpstreamError(core.ErrExchangeFailure, err, status, respBody,
			"Failed to create installation access token for installation %d", req.InstallationID)
	}

	if out.Token == "" {
		return nil, core.NewError(core.ErrMalformedResponse, nil,
			"Installation access token response contains no token")
	}

	cred := &core.IssuedCredential{
		Token:               out.Token,
		ExpiresAt:           out.ExpiresAt.Time,
		Permissions:         out.Permissions,
		RepositorySelection: out.RepositorySelection,
	}
	for _, repo := range out.Repositories {
		if name := repo.GetName(); name != "" {
			cred.Repositories = append(cred.Repositories, name)
		}
	}
	logger.Debug().Msgf("Minted token expiring at %s", cred.ExpiresAt.String())

	return cred, nil
}
