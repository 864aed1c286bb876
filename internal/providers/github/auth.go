package github

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v80/github"

	"github.com/darmiel/ghtoken/internal/core"
)

// Signer creates RS256 app assertions from an ApplicationIdentity.
// It holds no key material itself, the identity is passed into every call.
type Signer struct {
	now func() time.Time
}

var _ core.AssertionSigner = (*Signer)(nil)

func NewSigner() *Signer {
	return &Signer{now: time.Now}
}

// NewSignerWithClock creates a Signer which takes the current time from now.
func NewSignerWithClock(now func() time.Time) *Signer {
	return &Signer{now: now}
}

// Sign parses the private key of the identity and signs a JWT which is valid for core.AssertionLifetime.
func (s *Signer) Sign(identity core.ApplicationIdentity) (*core.Assertion, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(identity.KeyMaterial)
	if err != nil {
		return nil, core.NewError(core.ErrSigningFailure, err, "parsing github app private key")
	}

	// JWT timestamps have second precision, so truncate first to keep the window exact
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(core.AssertionLifetime)

	claims := jwt.RegisteredClaims{
		Issuer:    identity.ID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return nil, core.NewError(core.ErrSigningFailure, err, "signing github app jwt")
	}

	return &core.Assertion{
		Issuer:    identity.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Token:     signed,
	}, nil
}

// ClientOptions configure the HTTP side of the GitHub client.
type ClientOptions struct {
	// ServerURL is the GitHub Enterprise server URL. Empty means https://api.github.com
	ServerURL string

	// HTTPClient is the transport to use. Timeouts are configured here.
	HTTPClient *http.Client

	// UserAgent overrides the default go-github User-Agent.
	UserAgent string
}

// NewRawClient creates a GitHub client which authenticates with the given bearer token.
// Note that you cannot use media uploads with this client as it uses the same URL for both base and upload.
func NewRawClient(bearerToken string, opts ClientOptions) (*github.Client, error) {
	client := github.NewClient(opts.HTTPClient).WithAuthToken(bearerToken)

	if opts.ServerURL != "" {
		// we don't interact with uploads, so just use the same URL here.
		var err error
		client, err = client.WithEnterpriseURLs(opts.ServerURL, opts.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("creating github enterprise client: %w", err)
		}
	}

	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	return client, nil
}
