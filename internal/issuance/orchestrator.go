// Package issuance drives one token issuance from raw inputs to an issued credential.
package issuance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/ghtoken/internal/audit"
	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/keymaterial"
	"github.com/darmiel/ghtoken/internal/logging"
	"github.com/darmiel/ghtoken/internal/policy"
	"github.com/darmiel/ghtoken/internal/providers/github"
)

const (
	DefaultSecretName = "token"
	AuditAction       = "token.issue"
)

// Request holds the raw inputs of one issuance.
type Request struct {
	AppID string

	// PrivateKey is either the PEM key itself or a path to a file containing it.
	PrivateKey string

	Owner      string
	Repository string

	// Permissions is a newline separated "name:level" listing. Empty requests no down-scoping.
	Permissions string

	// SecretName is the name passed to Reporter.SetSecretOutput. Defaults to DefaultSecretName.
	SecretName string

	// Reporter receives status output and the token. Defaults to a reporter discarding everything.
	Reporter core.Reporter
}

// Orchestrator issues installation tokens. It only holds immutable collaborators,
// all per-issuance state lives in a run, so it is safe for concurrent use.
type Orchestrator struct {
	signer  core.AssertionSigner
	factory core.PlatformFactory
	policy  *policy.Policy
	auditor core.Auditor
	now     func() time.Time
}

type Option func(*Orchestrator)

// WithPolicy restricts targets and permissions. A nil policy allows everything.
func WithPolicy(p *policy.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithAuditor records one audit entry per issuance.
func WithAuditor(a core.Auditor) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.auditor = a
		}
	}
}

// WithClock sets the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(signer core.AssertionSigner, factory core.PlatformFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		signer:  signer,
		factory: factory,
		auditor: audit.NewNoopAuditor(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Issue runs one issuance. It returns exactly one of a credential or a classified error.
func (o *Orchestrator) Issue(ctx context.Context, req Request) (*core.IssuedCredential, error) {
	ctx, correlationID := core.WithCorrelationID(ctx)
	logger := log.Ctx(ctx).With().
		Str("correlation_id", correlationID).
		Str("repository", req.Owner+"/"+req.Repository).
		Logger()
	ctx = logger.WithContext(ctx)

	if req.SecretName == "" {
		req.SecretName = DefaultSecretName
	}
	if req.Reporter == nil {
		req.Reporter = discardReporter{}
	}

	transcript := logging.NewRecordingLogger()
	r := &run{
		o:             o,
		req:           req,
		correlationID: correlationID,
		logger:        logger,
		status:        logging.NewMultiLogger(req.Reporter, transcript),
		transcript:    transcript,
		state:         StateIdle,
	}
	return r.execute(ctx)
}

// run is the state of a single issuance.
type run struct {
	o             *Orchestrator
	req           Request
	correlationID string
	logger        zerolog.Logger

	// status receives the non-secret status lines for the reporter and the audit entry
	status     logging.InternalLogger
	transcript *logging.RecordingLogger

	state State

	identity    core.ApplicationIdentity
	permissions core.PermissionScope
	assertion   *core.Assertion
	platform    core.Platform
	binding     *core.InstallationBinding
	credential  *core.IssuedCredential
}

func (r *run) execute(ctx context.Context) (*core.IssuedCredential, error) {
	steps := []func(context.Context) error{
		r.validate,
		r.sign,
		r.resolveInstallation,
		r.exchangeToken,
		r.done,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, r.fail(err)
		}
	}
	return r.credential, nil
}

// enter moves the run forward to the next state.
func (r *run) enter(next State) {
	if next <= r.state {
		panic(fmt.Sprintf("issuance: invalid transition %s -> %s", r.state, next))
	}
	r.logger.Debug().Msgf("%s -> %s", r.state, next)
	r.state = next

	if p, ok := progress[next]; ok {
		if pr, ok := r.req.Reporter.(core.ProgressReporter); ok {
			pr.Progress(p.percent, p.message)
		}
	}
}

// validate is Idle -> Validating. No network call happens before it succeeds.
func (r *run) validate(_ context.Context) error {
	r.enter(StateValidating)

	content, fromFile, err := keymaterial.Load(r.req.PrivateKey)
	if err != nil {
		return core.NewError(core.ErrInvalidKeyFormat, err, "Failed to read private key file")
	}
	if fromFile {
		r.status.Info("Loaded private key from file: %s", r.req.PrivateKey)
	}
	if err := keymaterial.Validate(content); err != nil {
		return err
	}
	r.identity = core.ApplicationIdentity{
		ID:          r.req.AppID,
		KeyMaterial: []byte(content),
	}

	if err := r.o.policy.AllowTarget(policy.Target{
		AppID:      r.req.AppID,
		Owner:      r.req.Owner,
		Repository: r.req.Repository,
	}); err != nil {
		return err
	}

	// parsing is pure, so a denied permission set fails before any network call
	permissions, err := r.o.policy.Limit(github.ParsePermissions(r.req.Permissions))
	if err != nil {
		return err
	}
	r.permissions = permissions
	return nil
}

// sign is Validating -> Signing. It creates the single platform client of this run.
func (r *run) sign(ctx context.Context) error {
	r.enter(StateSigning)

	assertion, err := r.o.signer.Sign(r.identity)
	if err != nil {
		return err
	}
	r.assertion = assertion

	platform, err := r.o.factory(ctx, assertion)
	if err != nil {
		return core.NewError(core.ErrUpstream, err, "Failed to create GitHub client")
	}
	r.platform = platform
	return nil
}

// resolveInstallation is Signing -> ResolvingInstallation.
func (r *run) resolveInstallation(ctx context.Context) error {
	r.enter(StateResolvingInstallation)

	if err := r.checkAssertion(); err != nil {
		return err
	}
	binding, err := r.platform.ResolveInstallation(ctx, r.req.Owner, r.req.Repository)
	if err != nil {
		return err
	}
	r.binding = binding
	r.status.Info("Found installation ID: %d", binding.InstallationID)
	return nil
}

// exchangeToken is ResolvingInstallation -> ExchangingToken.
func (r *run) exchangeToken(ctx context.Context) error {
	r.enter(StateExchangingToken)

	if r.permissions != nil {
		r.status.Info("Requesting permissions: %s",
			strings.ReplaceAll(github.FormatPermissions(r.permissions), "\n", ", "))
	}

	if err := r.checkAssertion(); err != nil {
		return err
	}
	credential, err := r.platform.ExchangeToken(ctx, core.TokenRequest{
		InstallationID: r.binding.InstallationID,
		Repositories:   core.RestrictTo(r.req.Repository),
		Permissions:    r.permissions,
	})
	if err != nil {
		return err
	}
	r.credential = credential
	return nil
}

// checkAssertion fails if the assertion expired before the next upstream call.
func (r *run) checkAssertion() error {
	if !r.assertion.Valid(r.o.now()) {
		return core.NewError(core.ErrSigningFailure, nil,
			"App assertion expired at %s", r.assertion.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// done is ExchangingToken -> Done. The token is handed out exactly once.
func (r *run) done(_ context.Context) error {
	r.enter(StateDone)

	c := r.credential
	r.status.Info("GitHub installation access token created successfully:")
	r.status.Info("  Expires at: %s", c.ExpiresAt.Format(time.RFC3339))
	r.status.Info("  Permissions: %s", strings.ReplaceAll(github.FormatPermissions(c.Permissions), "\n", ", "))
	r.status.Info("  Repository selection: %s", c.RepositorySelection)
	if len(c.Repositories) > 0 {
		r.status.Info("  Repository names: %s", strings.Join(c.Repositories, ", "))
	}

	r.req.Reporter.SetSecretOutput(r.req.SecretName, c.Token)
	r.audit(nil)
	return nil
}

// fail moves the run to Failed. The error keeps its class, only the target is added if missing.
func (r *run) fail(err error) error {
	from := r.state
	r.state = StateFailed
	err = r.withTarget(err)

	r.logger.Debug().Err(err).Msgf("%s -> %s", from, StateFailed)
	r.audit(err)
	return err
}

func (r *run) withTarget(err error) error {
	target := r.req.Owner + "/" + r.req.Repository
	issErr, ok := err.(*core.IssuanceError)
	if !ok || strings.Contains(issErr.Message, target) {
		return err
	}
	cp := *issErr
	cp.Message = fmt.Sprintf("%s (repository %s)", cp.Message, target)
	return &cp
}

func (r *run) audit(err error) {
	entry := core.AuditEntry{
		ID:                   r.correlationID,
		Time:                 r.o.now(),
		Action:               AuditAction,
		AppID:                r.req.AppID,
		Owner:                r.req.Owner,
		Repository:           r.req.Repository,
		RequestedPermissions: r.permissions.StringMap(),
		Granted:              err == nil,
		State:                r.state.String(),
		Messages:             r.transcript.Lines(),
	}
	if r.binding != nil {
		entry.InstallationID = r.binding.InstallationID
	}
	if err != nil {
		entry.Kind = core.ErrorKind(err)
		entry.Error = err.Error()
	} else {
		entry.TokenFingerprint = audit.CalculateFingerprint(audit.GitHubFingerprintType, r.credential.Token)
		entry.Metadata = r.credential.Metadata()
	}
	if logErr := r.o.auditor.Log(entry); logErr != nil {
		r.logger.Warn().Err(logErr).Msg("failed to write audit entry")
	}
}

type discardReporter struct{}

func (discardReporter) Info(string, ...any) {}
func (discardReporter) Warn(string, ...any) {}
func (discardReporter) Error(string, ...any) {}
func (discardReporter) SetSecretOutput(string, string) {}
