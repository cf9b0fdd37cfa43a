package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// User is the identity resolved by the external provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session issued by the provider. The access token is an
// opaque bearer credential; this service never inspects it.
type Session struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// ErrInvalidCredentials indicates the provider rejected an email/password pair.
var ErrInvalidCredentials = eris.New("invalid login credentials")

// ClientOptions controls how the identity provider client is initialised.
type ClientOptions struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a GoTrue-compatible identity provider over its REST surface: password
// sign-in, get-user-for-token, and token revocation.
type Client struct {
	baseURL string
	anonKey string
	http    doer
	logger  *logrus.Logger
}

const defaultRequestTimeout = 10 * time.Second

// NewClient constructs a Client for the configured provider endpoint.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, eris.New("auth provider base URL is required")
	}

	var transport doer = opts.HTTPClient
	if opts.HTTPClient == nil {
		transport = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &Client{
		baseURL: baseURL,
		anonKey: opts.AnonKey,
		http:    transport,
		logger:  opts.Logger,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	User        User   `json:"user"`
}

type providerError struct {
	Message     string `json:"msg"`
	Description string `json:"error_description"`
}

func (e providerError) text() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Message
}

// SignInWithPassword exchanges an email/password pair for a session. A provider rejection
// surfaces as ErrInvalidCredentials; transport and server failures surface as plain errors.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*User, *Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, nil, eris.Wrap(err, "encoding sign-in payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, eris.Wrap(err, "building sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAPIKey(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, eris.Wrap(err, "contacting identity provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		message := decodeProviderError(resp.Body)
		c.logDenied("sign-in rejected", logrus.Fields{"status": resp.StatusCode, "message": message})
		return nil, nil, eris.Wrap(ErrInvalidCredentials, message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, eris.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, nil, eris.Wrap(err, "decoding sign-in response")
	}
	if token.AccessToken == "" {
		return nil, nil, eris.New("identity provider returned no access token")
	}

	return &token.User, &Session{AccessToken: token.AccessToken, ExpiresAt: token.ExpiresAt}, nil
}

// GetUser resolves a bearer token to the identity it proves. An unresolvable token returns
// nil without error; only transport and server failures return an error so callers can
// tell deliberate denial from provider outage.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, eris.Wrap(err, "building get-user request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	c.setAPIKey(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "contacting identity provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, eris.Wrap(err, "decoding get-user response")
	}
	if user.ID == "" {
		return nil, nil
	}

	return &user, nil
}

// SignOut revokes the session behind the token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return eris.Wrap(err, "building sign-out request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	c.setAPIKey(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "contacting identity provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return eris.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) setAPIKey(req *http.Request) {
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
}

func decodeProviderError(body io.Reader) string {
	var perr providerError
	if err := json.NewDecoder(body).Decode(&perr); err != nil {
		return "invalid login credentials"
	}
	if text := perr.text(); text != "" {
		return text
	}
	return "invalid login credentials"
}

func (c *Client) logDenied(message string, fields logrus.Fields) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).Warn(message)
}
