package usecase

import (
	"context"
	"errors"

	"onlearn-client/internal/cache"
	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"
)

// SessionUsecase owns the lifetime of the logged-in session: the persisted
// bearer token and the resource cache tied to it.
type SessionUsecase struct {
	tokens domain.TokenStore
	store  *cache.Store
	log    *logger.Logger
}

func NewSessionUsecase(tokens domain.TokenStore, store *cache.Store, log *logger.Logger) *SessionUsecase {
	return &SessionUsecase{tokens: tokens, store: store, log: log.With("component", "session")}
}

// UseToken stores a token obtained elsewhere (login is handled by the
// backend) after checking it carries an identity.
func (s *SessionUsecase) UseToken(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := utils.ParseIdentity(token)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		return nil, err
	}
	s.log.Info("session token stored", "user_id", claims.UserID, "role", claims.Role)
	return claims, nil
}

var ErrNoSession = errors.New("no stored session token")

// Identity reports who the stored token belongs to.
func (s *SessionUsecase) Identity(ctx context.Context) (*utils.Claims, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}
	return utils.ParseIdentity(token)
}

// Logout forgets the token and discards the whole cache.
func (s *SessionUsecase) Logout(ctx context.Context) error {
	s.store.Reset()
	return s.tokens.ClearToken(ctx)
}
