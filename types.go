package oauth

import (
	"encoding/json"
)

// Discord's endpoints and scope, used when the corresponding Config fields
// are left empty.
const (
	DefaultAuthorizeURL = "https://discord.com/oauth2/authorize"
	DefaultTokenURL     = "https://discord.com/api/oauth2/token"
	DefaultProfileURL   = "https://discord.com/api/v10/users/@me"
	DefaultScope        = "identify email"

	DefaultIDPath       = "id"
	DefaultUsernamePath = "username"
	DefaultEmailPath    = "email"
)

// Config describes one OAuth provider. It is immutable once the client is
// constructed; the zero values for the endpoint, scope, and field-path fields
// select Discord.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
	Scope        string

	// gjson paths into the profile response. Other providers nest the user
	// object, so these are configurable the same way the endpoints are.
	IDPath       string
	UsernamePath string
	EmailPath    string
}

func (c Config) withDefaults() Config {
	if c.AuthorizeURL == "" {
		c.AuthorizeURL = DefaultAuthorizeURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.ProfileURL == "" {
		c.ProfileURL = DefaultProfileURL
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.IDPath == "" {
		c.IDPath = DefaultIDPath
	}
	if c.UsernamePath == "" {
		c.UsernamePath = DefaultUsernamePath
	}
	if c.EmailPath == "" {
		c.EmailPath = DefaultEmailPath
	}
	return c
}

// TokenResponse is the provider's answer to the authorization-code exchange.
// It only lives for the duration of a callback and is never persisted.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

func (tr *TokenResponse) UnmarshalJSON(b []byte) error {
	type Tmp TokenResponse
	var tmp Tmp

	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}

	*tr = TokenResponse(tmp)

	return nil
}

// Profile is the provider's view of the authenticated user. ID is the only
// field the flow requires; username and email may be empty depending on the
// granted scopes.
type Profile struct {
	ID       string
	Username string
	Email    string
}
