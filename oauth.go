package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client performs the outbound half of the authorization-code flow against a
// single provider: building the authorization URL, exchanging a code for an
// access token, and fetching the remote profile.
type Client struct {
	h      *http.Client
	config Config
}

type ClientArgs struct {
	H      *http.Client
	Config Config
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.Config.ClientID == "" {
		return nil, fmt.Errorf("no client id provided")
	}

	if args.Config.ClientSecret == "" {
		return nil, fmt.Errorf("no client secret provided")
	}

	if args.Config.RedirectURI == "" {
		return nil, fmt.Errorf("no redirect uri provided")
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &Client{
		h:      args.H,
		config: args.Config.withDefaults(),
	}, nil
}

// AuthorizeURL returns the provider's authorization endpoint with the flow
// parameters attached. The state token must have been recorded by the caller
// before the user is sent here.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {c.config.ClientID},
		"redirect_uri":  {c.config.RedirectURI},
		"response_type": {"code"},
		"scope":         {c.config.Scope},
		"state":         {state},
	}

	return c.config.AuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token. Transport
// errors, non-2xx responses, and responses without an access token all
// surface as ErrTokenExchange.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	params := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.config.RedirectURI},
		"scope":         {c.config.Scope},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.TokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: token endpoint returned status %d", ErrTokenExchange, resp.StatusCode)
	}

	var tokenResponse TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("%w: could not decode response: %v", ErrTokenExchange, err)
	}

	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: response contained no access token", ErrTokenExchange)
	}

	return &tokenResponse, nil
}

// FetchProfile loads the authenticated user's profile with the bearer token.
// The request carries no body parameters, only the Authorization header.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.config.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating profile request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: profile endpoint returned status %d", ErrProfileFetch, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read body: %v", ErrProfileFetch, err)
	}

	profile := &Profile{
		ID:       gjson.GetBytes(b, c.config.IDPath).String(),
		Username: gjson.GetBytes(b, c.config.UsernamePath).String(),
		Email:    gjson.GetBytes(b, c.config.EmailPath).String(),
	}

	if profile.ID == "" {
		return nil, fmt.Errorf("%w: response contained no user id", ErrProfileFetch)
	}

	return profile, nil
}
