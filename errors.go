package oauth

import "errors"

// Every expected failure mode of the flow is a typed value so callers can
// route on errors.Is without parsing messages. Provider error detail stays in
// the wrapped message and is for logs only, never for end users.
var (
	// ErrInvalidState rejects a callback whose state token is missing,
	// expired, or already consumed.
	ErrInvalidState = errors.New("invalid or expired state token")

	// ErrTokenExchange covers transport failures, non-2xx responses, and
	// token responses without an access token.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrProfileFetch covers the same conditions for the profile request,
	// plus a response missing the provider user id.
	ErrProfileFetch = errors.New("profile fetch failed")

	// ErrAlreadyLinked means the provider account is linked to a different
	// local account than the one asking.
	ErrAlreadyLinked = errors.New("provider account already linked to another user")

	// ErrUsernameTaken is returned by IdentityStore.CreateAccount on a
	// username collision; the engine retries with a fresh suffix.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrProvisioning means account creation kept colliding and the engine
	// gave up.
	ErrProvisioning = errors.New("could not provision a new account")

	// ErrNotAuthenticated rejects operations that require a signed-in
	// session.
	ErrNotAuthenticated = errors.New("no authenticated session")
)
