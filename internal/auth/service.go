package auth

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Denial codes returned to callers so "never authenticated" is distinguishable from
// "rejected". An authenticated-but-non-admin identity is deliberately reported the same
// way as an invalid token.
const (
	CodeNoAuthToken  = "NO_AUTH_TOKEN"
	CodeInvalidAuth  = "INVALID_AUTH"
	CodeServiceError = "AUTH_SERVICE_ERROR"
)

// ErrNotAdmin indicates valid credentials that do not belong to the configured admin.
var ErrNotAdmin = eris.New("unauthorized: admin access only")

// IdentityProvider is the slice of the external provider the gate depends on.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*User, *Session, error)
	GetUser(ctx context.Context, token string) (*User, error)
	SignOut(ctx context.Context, token string) error
}

// Service is the Access Gate: it converts an opaque bearer credential into a binary
// admin/not-admin decision against the single configured admin identity.
type Service struct {
	provider   IdentityProvider
	adminEmail string
	logger     *logrus.Logger
}

// NewService wires the gate with its identity provider and the sole admin address.
func NewService(provider IdentityProvider, adminEmail string, logger *logrus.Logger) (*Service, error) {
	if provider == nil {
		return nil, eris.New("identity provider is required")
	}
	if adminEmail == "" {
		return nil, eris.New("admin email is required")
	}

	return &Service{provider: provider, adminEmail: adminEmail, logger: logger}, nil
}

// VerifyAdmin resolves the token and returns the identity only when it is the configured
// admin. Deliberate denials (empty token, unresolvable token, non-admin identity) return
// nil without error; a provider failure returns an error so transient outages stay visibly
// different from rejection.
func (s *Service) VerifyAdmin(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := s.provider.GetUser(ctx, token)
	if err != nil {
		s.logError(err, "resolving token with identity provider")
		return nil, eris.Wrap(err, "verifying admin session")
	}

	if user == nil || user.Email != s.adminEmail {
		return nil, nil
	}

	return user, nil
}

// SignInResult carries the authenticated identity and its session.
type SignInResult struct {
	User    *User
	Session *Session
}

// SignIn delegates to the identity provider, then re-checks the returned identity against
// the admin address. A valid non-admin account has its fresh session revoked immediately
// so correct credentials alone never yield a usable session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, eris.Wrap(err, "signing in")
	}
	if user == nil || session == nil {
		return nil, eris.New("identity provider returned no session")
	}

	if user.Email != s.adminEmail {
		if revokeErr := s.provider.SignOut(ctx, session.AccessToken); revokeErr != nil {
			s.logError(revokeErr, "revoking non-admin session")
		}
		return nil, ErrNotAdmin
	}

	return &SignInResult{User: user, Session: session}, nil
}

// SignOut revokes the session. Revocation failure is logged but never surfaced: the
// caller's local session-clearing must proceed regardless.
func (s *Service) SignOut(ctx context.Context, token string) {
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logError(err, "revoking session on sign-out")
	}
}

func (s *Service) logError(err error, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithField("error", err.Error()).Error(message)
}
