package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
	"github.com/guarzo/recruitapi/modules/credential"
	"github.com/guarzo/recruitapi/modules/gateway"
)

const (
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
)

// Service logs the user in and out and reports session state.
type Service struct {
	api    gateway.Requester
	store  *credential.Store
	logger *slog.Logger
}

// NewService creates a Service that keeps the session in store. store must be
// the one the gateway behind api reads from.
func NewService(api gateway.Requester, store *credential.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, store: store, logger: logger}
}

// Login validates the input, exchanges it for a credential and stores it.
func (s *Service) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	req := model.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	var env model.Envelope[model.LoginResult]
	if err := s.api.Post(ctx, loginPath, req, &env, gateway.WithoutAuthRetry()); err != nil {
		return nil, err
	}

	if !env.IsSuccess || (env.Status != 0 && env.Status != http.StatusOK) {
		msg := env.Message
		if msg == "" {
			msg = "Login failed"
		}
		status := env.Status
		if status == 0 || status == http.StatusOK {
			status = http.StatusUnauthorized
		}
		return nil, &common.APIError{Message: msg, Code: common.CodeRejected, Status: status}
	}
	if env.Model.AccessToken == "" {
		return nil, &common.APIError{
			Message: "Login response did not contain an access token",
			Code:    common.CodeDecode,
			Status:  http.StatusInternalServerError,
		}
	}

	lifetime := time.Duration(env.Model.ExpiresIn) * time.Second
	if err := s.store.Write(ctx, env.Model.AccessToken, env.Model.RefreshToken, lifetime); err != nil {
		return nil, common.Normalize(err)
	}
	s.logger.Info("logged in", "user_id", env.Model.UserId)

	result := env.Model
	return &result, nil
}

// Logout tells the server the session is over and clears the local credential.
// The server call is best effort; its failure is logged, not returned.
func (s *Service) Logout(ctx context.Context) error {
	if _, ok := s.store.AccessToken(ctx); ok {
		if err := s.api.Post(ctx, logoutPath, nil, nil, gateway.WithoutAuthRetry()); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}
	if err := s.store.Clear(ctx); err != nil {
		return common.Normalize(err)
	}
	s.logger.Info("logged out")
	return nil
}

// IsAuthenticated is true iff an access token is stored and not expired.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.store.IsAuthenticated(ctx)
}
