package command

import (
	"context"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SessionIssuer issues and revokes opaque session tokens.
// The Redis-backed implementation lives in infrastructure/persistence.
type SessionIssuer interface {
	Create(ctx context.Context, userID, role string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// LoginCommand contains login credentials.
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResult contains the issued session.
type LoginResult struct {
	// Token is the opaque bearer token.
	Token string

	// User is the authenticated account.
	User *user.User
}

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	userRepo user.Repository
	sessions SessionIssuer
	logger   *logger.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(userRepo user.Repository, sessions SessionIssuer, log *logger.Logger) *LoginHandler {
	if log == nil {
		log = logger.Default()
	}
	return &LoginHandler{
		userRepo: userRepo,
		sessions: sessions,
		logger:   log.With(logger.Component("login")),
	}
}

// Handle authenticates the credentials and issues a session token.
// Unknown emails and wrong passwords both map to ErrInvalidCredential so
// the response does not leak which accounts exist.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, shared.ErrInvalidCredential
	}

	u, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredential
	}

	if err := u.CheckPassword(cmd.Password); err != nil {
		return nil, shared.ErrInvalidCredential
	}

	if u.Status == user.StatusSuspended {
		return nil, shared.ErrUserNotActive
	}

	token, err := h.sessions.Create(ctx, u.ID, string(u.Role))
	if err != nil {
		return nil, shared.WrapError("command", "Login", shared.ErrStoreUnavailable, "failed to create session", err)
	}

	h.logger.Info("user logged in", logger.UserID(u.ID))

	return &LoginResult{Token: token, User: u}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGOUT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LogoutHandler revokes session tokens.
type LogoutHandler struct {
	sessions SessionIssuer
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(sessions SessionIssuer) *LogoutHandler {
	return &LogoutHandler{sessions: sessions}
}

// Handle revokes the given token. Revoking an unknown token succeeds.
func (h *LogoutHandler) Handle(ctx context.Context, token string) error {
	return h.sessions.Revoke(ctx, token)
}
