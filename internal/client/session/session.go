// Package session implements the client-side session engine: it owns the
// current principal, the bearer credential, and the tri-state session
// status, persisting all three across restarts.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/client/api"
	"github.com/evermart/storefront/internal/client/storage"
	"github.com/evermart/storefront/internal/models"
)

// State is the tri-state session status.
type State string

const (
	// StateAnonymous means no principal or credential is held.
	StateAnonymous State = "anonymous"
	// StateAuthenticating means a sign-in exchange is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means both principal and credential are present.
	StateAuthenticated State = "authenticated"
)

// Remote defines the API calls the engine needs.
type Remote interface {
	// Get issues an authenticated GET and decodes the response into out.
	Get(ctx context.Context, path string, out any) error
	// Post issues a POST with a JSON body and decodes the response into out.
	Post(ctx context.Context, path string, body, out any) error
	// Put issues a PUT with a JSON body and decodes the response into out.
	Put(ctx context.Context, path string, body, out any) error
}

// record is the persisted session blob.
type record struct {
	Principal     *models.Principal `json:"user,omitempty"`
	Token         string            `json:"token,omitempty"`
	Authenticated bool              `json:"authenticated"`
}

// ProfilePatch holds the principal fields a profile update may change.
// Empty fields are left untouched by the backend.
type ProfilePatch struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Engine owns the session state. The zero value is not usable; construct
// with New and call Load before first use.
type Engine struct {
	mu        sync.Mutex
	state     State
	principal *models.Principal
	token     string

	remote Remote
	store  *storage.Store
	log    *zap.Logger

	// AfterSignIn, when set, runs once after each successful sign-in.
	// The cart engine's merge/sync is wired here by the caller.
	AfterSignIn func(ctx context.Context)
}

// New constructs an Engine in the anonymous state.
func New(remote Remote, store *storage.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		state:  StateAnonymous,
		remote: remote,
		store:  store,
		log:    log,
	}
}

// Load restores the persisted session record. An incomplete record (flag
// set but principal or token missing) is discarded so the authenticated
// state always implies both are present.
func (e *Engine) Load() error {
	var rec record
	if err := e.store.Load(storage.SessionRecord, &rec); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if rec.Authenticated && rec.Principal != nil && rec.Token != "" {
		e.principal = rec.Principal
		e.token = rec.Token
		e.state = StateAuthenticated
	} else {
		e.principal = nil
		e.token = ""
		e.state = StateAnonymous
	}
	return nil
}

// Current returns the session status.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Authenticated reports whether a session exists. It is the read-only
// capability injected into the cart engine.
func (e *Engine) Authenticated() bool {
	return e.Current() == StateAuthenticated
}

// Principal returns a copy of the signed-in principal, if any.
func (e *Engine) Principal() (models.Principal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.principal == nil {
		return models.Principal{}, false
	}
	return *e.principal, true
}

// Token returns the current bearer credential, or "" when anonymous.
// It is wired as the API client's token provider.
func (e *Engine) Token() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

// SignIn exchanges an externally obtained identity assertion for a
// credential and principal. Entering the exchange drops any previous
// session, so a failed re-sign-in leaves the engine anonymous rather than
// holding the old credential. On success the state becomes authenticated
// and both are persisted; on failure the state returns to anonymous and an
// *AuthError reports the classified reason.
func (e *Engine) SignIn(ctx context.Context, idToken string) (models.Principal, error) {
	e.mu.Lock()
	e.principal = nil
	e.token = ""
	e.state = StateAuthenticating
	e.persistLocked()
	e.mu.Unlock()

	req := struct {
		IDToken string `json:"idToken"`
	}{IDToken: idToken}
	var resp struct {
		Token string           `json:"token"`
		User  models.Principal `json:"user"`
	}
	if err := e.remote.Post(ctx, "/auth/google", req, &resp); err != nil {
		e.mu.Lock()
		e.state = StateAnonymous
		e.mu.Unlock()
		return models.Principal{}, &AuthError{Reason: classify(err), Err: err}
	}

	e.mu.Lock()
	e.principal = &resp.User
	e.token = resp.Token
	e.state = StateAuthenticated
	e.persistLocked()
	e.mu.Unlock()

	e.log.Debug("signed in", zap.String("user", resp.User.ID))
	if e.AfterSignIn != nil {
		e.AfterSignIn(ctx)
	}
	return resp.User, nil
}

// SignOut clears the principal and credential and removes the persisted
// record. It is idempotent and always succeeds. It also serves as the API
// client's on-unauthorized hook, so any 401-rejected call ends the session.
func (e *Engine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateAnonymous && e.principal == nil && e.token == "" {
		return
	}
	e.principal = nil
	e.token = ""
	e.state = StateAnonymous
	if err := e.store.Remove(storage.SessionRecord); err != nil {
		e.log.Warn("failed to remove session record", zap.Error(err))
	}
	e.log.Debug("signed out")
}

// RefreshPrincipal re-fetches the principal using the current credential.
// If the credential is rejected the engine has signed out by the time this
// returns, and the error is ErrSessionExpired.
func (e *Engine) RefreshPrincipal(ctx context.Context) error {
	if !e.Authenticated() {
		return ErrNoSession
	}

	var user models.Principal
	if err := e.remote.Get(ctx, "/auth/me", &user); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// The transport hook usually signed out already; SignOut is
			// idempotent so forcing it here covers direct callers too.
			e.SignOut()
			return ErrSessionExpired
		}
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.principal = &user
	e.persistLocked()
	return nil
}

// UpdateProfile sends a partial principal update and replaces the held
// principal with the merged result.
func (e *Engine) UpdateProfile(ctx context.Context, patch ProfilePatch) (models.Principal, error) {
	if !e.Authenticated() {
		return models.Principal{}, ErrNoSession
	}

	var resp struct {
		User models.Principal `json:"user"`
	}
	if err := e.remote.Put(ctx, "/auth/profile", patch, &resp); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			e.SignOut()
			return models.Principal{}, ErrSessionExpired
		}
		return models.Principal{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.principal = &resp.User
	e.persistLocked()
	return resp.User, nil
}

// persistLocked rewrites the session record. Callers must hold e.mu.
func (e *Engine) persistLocked() {
	rec := record{
		Principal:     e.principal,
		Token:         e.token,
		Authenticated: e.state == StateAuthenticated,
	}
	if err := e.store.Save(storage.SessionRecord, rec); err != nil {
		e.log.Warn("failed to persist session record", zap.Error(err))
	}
}

// classify maps a sign-in exchange error onto an AuthError reason.
func classify(err error) Reason {
	var status *api.StatusError
	if errors.As(err, &status) {
		if status.Code == 403 {
			return ReasonNotAllowed
		}
		if status.Code >= 400 && status.Code < 500 {
			return ReasonInvalidAssertion
		}
	}
	if errors.Is(err, api.ErrUnauthorized) {
		return ReasonInvalidAssertion
	}
	return ReasonTransport
}
