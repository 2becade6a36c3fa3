package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xershade/discord-oauth-golang/internal/helpers"
)

const (
	// 16 random bytes, hex encoded: 128 bits of entropy per state token.
	stateTokenLen = 16

	// How many suffixed usernames to try after the profile username
	// collides before giving up on provisioning.
	maxProvisionRetries = 3
)

// Session is the host's view of the browser session driving a flow. The
// engine only establishes a session after the identity link is durable.
type Session interface {
	// AccountID reports the authenticated local account, if any.
	AccountID() (int64, bool)

	// Establish signs the session in as the given local account.
	Establish(accountID int64) error
}

// IdentityStore is the host's durable mapping between provider user ids and
// local accounts. The store is the enforcement point for the one-provider-id,
// one-account invariant (a unique constraint, not an engine pre-check): Link
// must fail with ErrAlreadyLinked when the provider id belongs to a different
// account, even under concurrent callbacks.
type IdentityStore interface {
	// FindAccountByProviderID resolves an existing link, reporting whether
	// one exists.
	FindAccountByProviderID(ctx context.Context, providerUserID string) (int64, bool, error)

	// CreateAccount makes a fresh local account, failing with
	// ErrUsernameTaken on a username collision.
	CreateAccount(ctx context.Context, username, email string) (int64, error)

	// DeleteAccount removes an account the engine provisioned but could not
	// link, so no half-created record survives a failed callback.
	DeleteAccount(ctx context.Context, accountID int64) error

	// Link records the provider id against the account.
	Link(ctx context.Context, accountID int64, providerUserID string) error

	// Unlink removes the account's link. Unlinking an account with no link
	// is a no-op, not an error.
	Unlink(ctx context.Context, accountID int64) error
}

type Status string

const (
	StatusLoggedIn Status = "logged_in"
	StatusLinked   Status = "linked"
	StatusCreated  Status = "created"
	StatusUnlinked Status = "unlinked"
)

// Outcome is the terminal result of a callback or unlink. Redirect is always
// a same-origin target, validated by the engine.
type Outcome struct {
	Status    Status
	AccountID int64
	Redirect  string
}

// CallbackParams are the query parameters the provider sends back.
type CallbackParams struct {
	Code       string
	State      string
	RedirectTo string
}

// Engine owns the account-resolution flow: it hands out authorization URLs
// with single-use state tokens and turns callbacks into exactly one of three
// outcomes (log in an already-linked account, link the signed-in account, or
// provision a new one).
type Engine struct {
	client          *Client
	store           IdentityStore
	pending         PendingAuthStore
	defaultRedirect string
}

type EngineArgs struct {
	Client *Client
	Store  IdentityStore

	// Pending overrides the in-memory state store; leave nil to get one with
	// StateTTL (or DefaultStateTTL).
	Pending  PendingAuthStore
	StateTTL time.Duration

	// DefaultRedirect is used when the callback carries no usable
	// redirect_to. Defaults to "/".
	DefaultRedirect string
}

func NewEngine(args EngineArgs) (*Engine, error) {
	if args.Client == nil {
		return nil, fmt.Errorf("no oauth client provided")
	}

	if args.Store == nil {
		return nil, fmt.Errorf("no identity store provided")
	}

	if args.Pending == nil {
		args.Pending = NewPendingAuthStore(args.StateTTL)
	}

	if args.DefaultRedirect == "" {
		args.DefaultRedirect = "/"
	}

	return &Engine{
		client:          args.Client,
		store:           args.Store,
		pending:         args.Pending,
		defaultRedirect: args.DefaultRedirect,
	}, nil
}

// AuthorizationURL generates a fresh state token, records the pending
// authorization, and returns the provider URL to send the user to. No network
// I/O happens here.
func (e *Engine) AuthorizationURL() (string, error) {
	state, err := helpers.GenerateToken(stateTokenLen)
	if err != nil {
		return "", fmt.Errorf("could not generate state token: %w", err)
	}

	if err := e.pending.Put(state); err != nil {
		return "", fmt.Errorf("could not record pending authorization: %w", err)
	}

	return e.client.AuthorizeURL(state), nil
}

// HandleCallback validates and consumes the state token, exchanges the code,
// fetches the profile, and resolves it to a local account. The state is
// burned before anything else happens, so a replayed callback fails
// ErrInvalidState without any network calls or side effects.
func (e *Engine) HandleCallback(ctx context.Context, params CallbackParams, sess Session) (*Outcome, error) {
	if params.State == "" || !e.pending.Consume(params.State) {
		return nil, ErrInvalidState
	}

	if params.Code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrTokenExchange)
	}

	token, err := e.client.ExchangeCode(ctx, params.Code)
	if err != nil {
		return nil, err
	}

	profile, err := e.client.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	outcome, err := e.resolve(ctx, profile, sess)
	if err != nil {
		return nil, err
	}

	outcome.Redirect = e.redirectTarget(params.RedirectTo)

	return outcome, nil
}

// resolve walks the state machine once the remote identity is known. An
// existing link wins over the current session: a signed-in user presenting a
// provider account that belongs to someone else is logged in as that someone.
func (e *Engine) resolve(ctx context.Context, profile *Profile, sess Session) (*Outcome, error) {
	accountID, found, err := e.store.FindAccountByProviderID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if found {
		if err := sess.Establish(accountID); err != nil {
			return nil, err
		}

		return &Outcome{Status: StatusLoggedIn, AccountID: accountID}, nil
	}

	if current, ok := sess.AccountID(); ok {
		if err := e.store.Link(ctx, current, profile.ID); err != nil {
			return nil, err
		}

		return &Outcome{Status: StatusLinked, AccountID: current}, nil
	}

	accountID, err = e.provision(ctx, profile)
	if err != nil {
		return nil, err
	}

	if err := e.store.Link(ctx, accountID, profile.ID); err != nil {
		// Lost a race to a concurrent callback for the same provider id.
		// Roll the fresh account back rather than leave it dangling.
		if derr := e.store.DeleteAccount(ctx, accountID); derr != nil {
			return nil, errors.Join(err, derr)
		}

		return nil, err
	}

	if err := sess.Establish(accountID); err != nil {
		return nil, err
	}

	return &Outcome{Status: StatusCreated, AccountID: accountID}, nil
}

// provision creates a local account for the profile, retrying with numeric
// suffixes while the store reports username collisions.
func (e *Engine) provision(ctx context.Context, profile *Profile) (int64, error) {
	base := helpers.SanitizeUsername(profile.Username)
	if base == "" {
		base = "discord_user_" + profile.ID
	}

	for attempt := 0; attempt <= maxProvisionRetries; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%d", base, attempt)
		}

		accountID, err := e.store.CreateAccount(ctx, username, profile.Email)
		if err == nil {
			return accountID, nil
		}

		if !errors.Is(err, ErrUsernameTaken) {
			return 0, err
		}
	}

	return 0, ErrProvisioning
}

// Unlink removes the signed-in account's provider link. It is idempotent:
// unlinking an account with no link succeeds.
func (e *Engine) Unlink(ctx context.Context, sess Session) (*Outcome, error) {
	accountID, ok := sess.AccountID()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	if err := e.store.Unlink(ctx, accountID); err != nil {
		return nil, err
	}

	return &Outcome{Status: StatusUnlinked, AccountID: accountID, Redirect: e.defaultRedirect}, nil
}

func (e *Engine) redirectTarget(requested string) string {
	if helpers.IsSafeRedirect(requested) {
		return requested
	}

	return e.defaultRedirect
}
