// Package policy restricts which repositories may receive a token and caps the
// permissions a token may carry. It never widens a request.
package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/providers/github"
)

var attributeKeys = map[string]struct{}{
	"app_id":     {},
	"owner":      {},
	"repository": {},
}

// Options is the user-facing policy definition.
type Options struct {
	// Expr is an expr-lang boolean expression over app_id, owner and repository.
	Expr string `yaml:"expr,omitempty"`

	// Condition is a structured alternative to Expr. Both must match if both are set.
	Condition *Condition `yaml:"condition,omitempty"`

	// MaxPermissions is the ceiling for requested permissions.
	MaxPermissions map[string]string `yaml:"max_permissions,omitempty"`
}

// Target is the repository a token is requested for.
type Target struct {
	AppID      string
	Owner      string
	Repository string
}

func (t Target) attributes() map[string]any {
	return map[string]any{
		"app_id":     t.AppID,
		"owner":      t.Owner,
		"repository": t.Repository,
	}
}

// Policy is a compiled Options. A nil Policy allows everything.
type Policy struct {
	source    string
	program   *vm.Program
	condition *Condition
	ceiling   core.PermissionScope
}

// Compile validates opts and compiles the expression.
// It returns nil if opts restricts nothing.
func Compile(opts Options) (*Policy, error) {
	if opts.Expr == "" && opts.Condition == nil && opts.MaxPermissions == nil {
		return nil, nil
	}

	// an empty ceiling would turn every request into "permissions: {}", which GitHub rejects
	if opts.MaxPermissions != nil && len(opts.MaxPermissions) == 0 {
		return nil, fmt.Errorf("max_permissions must list at least one permission")
	}

	p := &Policy{
		source:    opts.Expr,
		condition: opts.Condition,
		ceiling:   core.ScopeFromStringMap(opts.MaxPermissions),
	}

	if opts.Expr != "" {
		program, err := expr.Compile(opts.Expr, expr.Env(Target{}.attributes()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling policy expression: %w", err)
		}
		p.program = program
	}

	if err := opts.Condition.Validate(); err != nil {
		return nil, fmt.Errorf("validating policy condition: %w", err)
	}

	return p, nil
}

// Ceiling returns the configured permission ceiling, or nil if there is none.
func (p *Policy) Ceiling() core.PermissionScope {
	if p == nil {
		return nil
	}
	return p.ceiling.Clone()
}

// AllowTarget fails with core.ErrPolicyDenied if the target is not allowed.
func (p *Policy) AllowTarget(target Target) error {
	if p == nil {
		return nil
	}
	attributes := target.attributes()

	if p.program != nil {
		out, err := expr.Run(p.program, attributes)
		if err != nil {
			return core.NewError(core.ErrPolicyDenied, err,
				"Failed to evaluate policy for repository %s/%s", target.Owner, target.Repository)
		}
		if ok, _ := out.(bool); !ok {
			return core.NewError(core.ErrPolicyDenied, nil,
				"Repository %s/%s is not allowed by policy expression '%s'", target.Owner, target.Repository, p.source)
		}
	}

	if p.condition != nil {
		if ok, reason := p.condition.Evaluate(attributes); !ok {
			return core.NewError(core.ErrPolicyDenied, nil,
				"Repository %s/%s is not allowed by policy condition (%s)", target.Owner, target.Repository, reason)
		}
	}
	return nil
}

// Limit applies the permission ceiling to requested.
// Without a ceiling, requested is returned unchanged. With a ceiling, an absent
// request becomes the ceiling and a request exceeding it is denied.
func (p *Policy) Limit(requested core.PermissionScope) (core.PermissionScope, error) {
	if p == nil || p.ceiling == nil {
		return requested, nil
	}
	if requested != nil && len(requested) == 0 {
		return requested, nil // explicit empty request, passed through untouched
	}
	scope, err := github.Downscope(p.ceiling, requested)
	if err != nil {
		return nil, core.NewError(core.ErrPolicyDenied, err, "Requested permissions exceed the configured maximum")
	}
	if len(scope) == 0 {
		return nil, core.NewError(core.ErrPolicyDenied, nil, "The configured maximum permits no permissions")
	}
	return scope, nil
}
