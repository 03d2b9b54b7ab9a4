// Package auth signs users in and out and keeps the session in step
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/coinfolio/internal/common"
	"github.com/bobmcallan/coinfolio/internal/interfaces"
	"github.com/bobmcallan/coinfolio/internal/models"
)

// Service implements login and logout
type Service struct {
	client  interfaces.AuthClient
	session interfaces.SessionStore
	logger  *common.Logger
}

// NewService creates a new auth service
func NewService(client interfaces.AuthClient, session interfaces.SessionStore, logger *common.Logger) *Service {
	return &Service{
		client:  client,
		session: session,
		logger:  logger,
	}
}

// Login authenticates and stores the user in the session. A rejected login
// returns ErrAuthFailure carrying the backend message; the session is left
// as it was.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}

	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "invalid username or password"
		}
		s.logger.Info().Str("username", username).Msg("Login rejected")
		return nil, fmt.Errorf("%w: %s", common.ErrAuthFailure, msg)
	}

	s.session.Set(res.User)
	s.logger.Info().Str("username", res.User.Username).Msg("Signed in")
	return s.session.Get(), nil
}

// Logout ends the backend session and always clears the local one. A backend
// failure is returned after the local session is cleared.
func (s *Service) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	s.session.Set(nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Backend logout failed, local session cleared")
		return err
	}
	s.logger.Info().Msg("Signed out")
	return nil
}

// CurrentUser returns the signed-in user, or nil.
func (s *Service) CurrentUser() *models.User {
	return s.session.Get()
}
