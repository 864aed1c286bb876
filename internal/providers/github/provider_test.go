package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darmiel/ghtoken/internal/core"
)

const (
	installationPath = "/api/v3/repos/octocat/Hello-World/installation"
	accessTokensPath = "/api/v3/app/installations/12345/access_tokens"
)

var testAssertion = &core.Assertion{
	Issuer:    "123456",
	IssuedAt:  time.Now(),
	ExpiresAt: time.Now().Add(core.AssertionLifetime),
	Token:     "app-assertion-jwt",
}

// newTestClient starts a GitHub Enterprise lookalike. go-github puts
// enterprise APIs below /api/v3/.
func newTestClient(t *testing.T, mux *http.ServeMux) *AppClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewAppClient(testAssertion, ClientOptions{ServerURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAppClient() error = %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestAppClient_ResolveInstallation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(installationPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testAssertion.Token {
			t.Errorf("Authorization = %q, want app assertion", got)
		}
		writeJSON(w, http.StatusOK, `{"id": 12345, "app_id": 123456, "target_type": "Organization"}`)
	})
	client := newTestClient(t, mux)

	binding, err := client.ResolveInstallation(context.Background(), "octocat", "Hello-World")
	if err != nil {
		t.Fatalf("ResolveInstallation() error = %v", err)
	}
	want := &core.InstallationBinding{InstallationID: 12345, TargetType: core.TargetOrganization}
	if !reflect.DeepEqual(binding, want) {
		t.Errorf("ResolveInstallation() = %+v, want %+v", binding, want)
	}
}

func TestAppClient_ResolveInstallation_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantStatus int
	}{
		{
			name:       "Not Installed",
			status:     http.StatusNotFound,
			body:       `{"message": "Not Found"}`,
			wantKind:   core.ErrInstallationNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Server Error",
			status:     http.StatusInternalServerError,
			body:       `{"message": "boom"}`,
			wantKind:   core.ErrUpstream,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "Bad Credentials",
			status:     http.StatusUnauthorized,
			body:       `{"message": "A JSON web token could not be decoded"}`,
			wantKind:   core.ErrUpstream,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:     "Malformed Success",
			status:   http.StatusOK,
			body:     `{"id": "not-a-number"`,
			wantKind: core.ErrMalformedResponse,
		},
		{
			name:     "Missing ID",
			status:   http.StatusOK,
			body:     `{"target_type": "User"}`,
			wantKind: core.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(installationPath, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			client := newTestClient(t, mux)

			_, err := client.ResolveInstallation(context.Background(), "octocat", "Hello-World")
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("ResolveInstallation() error = %v, want %v", err, tt.wantKind)
			}
			if !strings.Contains(err.Error(), "octocat/Hello-World") {
				t.Errorf("error %q does not name the repository", err)
			}

			var issErr *core.IssuanceError
			if !errors.As(err, &issErr) {
				t.Fatalf("error is not an IssuanceError: %T", err)
			}
			if issErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", issErr.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != 0 && issErr.Body == "" {
				t.Errorf("Body is empty, want response body")
			}
		})
	}
}

const tokenResponse = `{
	"token": "ghs_installationToken456",
	"expires_at": "2024-01-01T01:00:00Z",
	"permissions": {"contents": "write", "metadata": "read"},
	"repository_selection": "selected",
	"repositories": [{"id": 1296269, "name": "Hello-World"}]
}`

func captureTokenRequest(t *testing.T, calls *atomic.Int32, got *map[string]json.RawMessage) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(accessTokensPath, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		writeJSON(w, http.StatusCreated, tokenResponse)
	})
	return mux
}

func TestAppClient_ExchangeToken(t *testing.T) {
	var calls atomic.Int32
	var body map[string]json.RawMessage
	client := newTestClient(t, captureTokenRequest(t, &calls, &body))

	cred, err := client.ExchangeToken(context.Background(), core.TokenRequest{
		InstallationID: 12345,
		Repositories:   core.RestrictTo("Hello-World"),
	})
	if err != nil {
		t.Fatalf("ExchangeToken() error = %v", err)
	}

	if _, ok := body["permissions"]; ok {
		t.Errorf("request body contains permissions although none were requested: %s", body["permissions"])
	}
	var repos []string
	if err := json.Unmarshal(body["repositories"], &repos); err != nil {
		t.Fatalf("decoding repositories: %v", err)
	}
	if !reflect.DeepEqual(repos, []string{"Hello-World"}) {
		t.Errorf("repositories = %v, want [Hello-World]", repos)
	}

	if cred.Token != "ghs_installationToken456" {
		t.Errorf("Token = %q", cred.Token)
	}
	if want := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC); !cred.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %s, want %s", cred.ExpiresAt, want)
	}
	if want := (core.PermissionScope{"contents": "write", "metadata": "read"}); !reflect.DeepEqual(cred.Permissions, want) {
		t.Errorf("Permissions = %v, want %v", cred.Permissions, want)
	}
	if cred.RepositorySelection != "selected" {
		t.Errorf("RepositorySelection = %q, want selected", cred.RepositorySelection)
	}
	if !reflect.DeepEqual(cred.Repositories, []string{"Hello-World"}) {
		t.Errorf("Repositories = %v, want [Hello-World]", cred.Repositories)
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint called %d times, want 1", calls.Load())
	}
}

func TestAppClient_ExchangeToken_Permissions(t *testing.T) {
	tests := []struct {
		name      string
		requested core.PermissionScope
		want      string
	}{
		{
			name:      "Parsed Scope",
			requested: ParsePermissions("contents:write\npull_requests:read"),
			want:      `{"contents":"write","pull_requests":"read"}`,
		},
		{
			name:      "Empty Scope Is Sent",
			requested: core.PermissionScope{},
			want:      `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			var body map[string]json.RawMessage
			client := newTestClient(t, captureTokenRequest(t, &calls, &body))

			_, err := client.ExchangeToken(context.Background(), core.TokenRequest{
				InstallationID: 12345,
				Repositories:   core.RestrictTo("Hello-World"),
				Permissions:    tt.requested,
			})
			if err != nil {
				t.Fatalf("ExchangeToken() error = %v", err)
			}

			raw, ok := body["permissions"]
			if !ok {
				t.Fatalf("request body has no permissions field")
			}
			if string(raw) != tt.want {
				t.Errorf("permissions = %s, want %s", raw, tt.want)
			}

			var sent core.PermissionScope
			if err := json.Unmarshal(raw, &sent); err != nil {
				t.Fatal(err)
			}
			if len(tt.requested) > 0 && !reflect.DeepEqual(ParsePermissions(FormatPermissions(sent)), tt.requested) {
				t.Errorf("sent scope %v does not round-trip to %v", sent, tt.requested)
			}
		})
	}
}

func TestAppClient_ExchangeToken_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantStatus int
	}{
		{
			name:       "Permission Not Granted",
			status:     http.StatusUnprocessableEntity,
			body:       `{"message": "The permissions requested are not granted to this installation."}`,
			wantKind:   core.ErrExchangeFailure,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Installation Suspended",
			status:     http.StatusForbidden,
			body:       `{"message": "This installation has been suspended"}`,
			wantKind:   core.ErrExchangeFailure,
			wantStatus: http.StatusForbidden,
		},
		{
			name:     "Malformed JSON",
			status:   http.StatusCreated,
			body:     `{"token": `,
			wantKind: core.ErrMalformedResponse,
		},
		{
			name:     "Empty Token",
			status:   http.StatusCreated,
			body:     `{"token": "", "expires_at": "2024-01-01T01:00:00Z"}`,
			wantKind: core.ErrMalformedResponse,
		},
		{
			name:     "Empty Body",
			status:   http.StatusCreated,
			body:     ``,
			wantKind: core.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(accessTokensPath, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			client := newTestClient(t, mux)

			cred, err := client.ExchangeToken(context.Background(), core.TokenRequest{
				InstallationID: 12345,
				Repositories:   core.RestrictTo("Hello-World"),
			})
			if cred != nil {
				t.Errorf("ExchangeToken() returned a credential alongside error")
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("ExchangeToken() error = %v, want %v", err, tt.wantKind)
			}
			var issErr *core.IssuanceError
			if !errors.As(err, &issErr) {
				t.Fatalf("error is not an IssuanceError: %T", err)
			}
			if issErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", issErr.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != 0 && !strings.Contains(err.Error(), fmt.Sprintf("HTTP %d", tt.wantStatus)) {
				t.Errorf("error %q does not include the status code", err)
			}
		})
	}
}

func TestAppClient_ExchangeToken_RequiresRestriction(t *testing.T) {
	var calls atomic.Int32
	var body map[string]json.RawMessage
	client := newTestClient(t, captureTokenRequest(t, &calls, &body))

	_, err := client.ExchangeToken(context.Background(), core.TokenRequest{InstallationID: 12345})
	if !errors.Is(err, core.ErrExchangeFailure) {
		t.Errorf("ExchangeToken() error = %v, want ErrExchangeFailure", err)
	}
	if calls.Load() != 0 {
		t.Errorf("token endpoint called %d times, want 0", calls.Load())
	}
}

func TestFactory_UserAgent(t *testing.T) {
	var userAgent string
	mux := http.NewServeMux()
	mux.HandleFunc(installationPath, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		writeJSON(w, http.StatusOK, `{"id": 12345}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, id := core.WithCorrelationID(context.Background())
	platform, err := Factory(ClientOptions{ServerURL: srv.URL})(ctx, testAssertion)
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	if _, err := platform.ResolveInstallation(ctx, "octocat", "Hello-World"); err != nil {
		t.Fatalf("ResolveInstallation() error = %v", err)
	}

	if !strings.Contains(userAgent, "correlation_id="+id) {
		t.Errorf("User-Agent = %q, want correlation id %s", userAgent, id)
	}
	if !strings.Contains(userAgent, "app=123456") {
		t.Errorf("User-Agent = %q, want app id", userAgent)
	}
}
