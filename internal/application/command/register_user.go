package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data to create an account.
type RegisterUserCommand struct {
	// Email is the login email, normalized to lowercase.
	Email string

	// Password is the plaintext password, hashed before storage.
	Password string

	// DisplayName is shown on leaderboards and dashboards.
	DisplayName string

	// Role defaults to student when empty.
	Role string

	// GradeLevel is the K-12 grade (0 = kindergarten).
	GradeLevel int
}

// RegisterUserResult contains the created account.
type RegisterUserResult struct {
	User *user.User
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo          user.Repository
	publisher         shared.EventPublisher
	minPasswordLength int
	logger            *logger.Logger
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(
	userRepo user.Repository,
	publisher shared.EventPublisher,
	minPasswordLength int,
	log *logger.Logger,
) *RegisterUserHandler {
	if minPasswordLength <= 0 {
		minPasswordLength = 8
	}
	if log == nil {
		log = logger.Default()
	}
	return &RegisterUserHandler{
		userRepo:          userRepo,
		publisher:         publisher,
		minPasswordLength: minPasswordLength,
		logger:            log.With(logger.Component("register_user")),
	}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}

	if len(cmd.Password) < h.minPasswordLength {
		return nil, shared.NewDomainError("command", "RegisterUser", shared.ErrValidation, "password too short")
	}

	roleName := cmd.Role
	if roleName == "" {
		roleName = string(user.RoleStudent)
	}
	role, err := user.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	grade := shared.GradeLevel(cmd.GradeLevel)
	if !grade.IsValid() {
		return nil, shared.NewDomainError("command", "RegisterUser", shared.ErrValueOutOfRange, "grade level out of range")
	}

	u, err := user.NewUser(uuid.NewString(), email, cmd.Password, cmd.DisplayName, role, grade)
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	h.logger.Info("user registered",
		logger.UserID(u.ID),
		logger.String("role", string(u.Role)),
	)

	if h.publisher != nil {
		event := shared.NewUserRegisteredEvent(u.ID, u.Email.String(), string(u.Role), int(u.GradeLevel))
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Error("failed to publish event", logger.Err(err))
		}
	}

	return &RegisterUserResult{User: u}, nil
}
