package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-forum-api/internal/dto"
	"github.com/noah-isme/campus-forum-api/internal/repository"
)

// AccountService resolves authenticated identities into actors.
type AccountService interface {
	LoadActor(ctx context.Context, userID uint) (Actor, error)
	Me(ctx context.Context, actor Actor) (dto.MeResponse, error)
}

type accountService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(users repository.UserRepository, logger zerolog.Logger) AccountService {
	return &accountService{
		users:  users,
		logger: logger.With().Str("component", "account_service").Logger(),
	}
}

// LoadActor returns the actor for a token subject. Unknown users are unauthenticated
// and banned users are forbidden.
func (s *accountService) LoadActor(ctx context.Context, userID uint) (Actor, error) {
	if userID == 0 {
		return Actor{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, ErrUnauthenticated
	}
	if err != nil {
		return Actor{}, err
	}

	if !user.IsActive {
		s.logger.Debug().Uint("user_id", user.ID).Msg("rejected disabled account")
		return Actor{}, ErrAccountDisabled
	}

	return ActorFromUser(user), nil
}

func (s *accountService) Me(ctx context.Context, actor Actor) (dto.MeResponse, error) {
	if err := requireAuthenticated(actor); err != nil {
		return dto.MeResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return dto.MeResponse{}, translateNotFound(err, "user")
	}

	return dto.MeResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Capabilities: dto.CapabilitiesResponse{
			LockThread:     actor.Capabilities.LockThread,
			DeleteAnyReply: actor.Capabilities.DeleteAnyReply,
			ChangeUser:     actor.Capabilities.ChangeUser,
			Superuser:      actor.Capabilities.Superuser,
		},
	}, nil
}
