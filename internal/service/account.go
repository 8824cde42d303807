package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// maxUsernameAttempts bounds the search for a free username when a GitHub
// login is already taken locally.
const maxUsernameAttempts = 20

// AccountService signs users up and in.
//
//	AuthHandler (HTTP) → AccountService → UserRepository (DB)
//	                                   ↘ TokenService (session JWT)
//	                                   ↘ PasswordService (bcrypt)
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user with the session token to put in
// the cookie. Setting the cookie is the handler's job.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup creates a password account and signs it in.
// A taken username is ErrConflict.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password1", err.Error())
	}

	user := &model.User{Username: username, Email: strings.TrimSpace(email), PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID), slog.String("username", username))
	return s.issue(user)
}

// Login checks a username and password.
//
// Unknown user and wrong password both come back as ErrUnauthenticated with
// the same message, so the login page cannot be used to probe which
// usernames exist.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthenticated("invalid username or password")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return nil, apperror.Unauthenticated("invalid username or password")
		}
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// A GitHub account that signed in before is matched by its numeric ID, never
// by login name, because GitHub users can rename themselves. A first-time
// GitHub user gets a local account named after their GitHub login; if that
// name is taken or reserved, a numbered variant ("octocat2", "octocat3" ...).
func (s *AccountService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser, reserved func(string) bool) (*AuthResult, error) {
	if gh == nil {
		return nil, errors.New("service/account: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	switch {
	case err == nil:
		s.logger.Info("user authenticated via GitHub", slog.String("userID", user.ID))
		return s.issue(user)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("looking up GitHub user %d: %w", gh.ID, err)
	}

	ghID := gh.ID
	base := gh.Login
	for i := 1; i <= maxUsernameAttempts; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s%d", base, i)
		}
		if reserved != nil && reserved(name) {
			continue
		}

		user = &model.User{Username: name, Email: gh.Email, GitHubID: &ghID}
		err = s.users.CreateUser(ctx, user)
		if errors.Is(err, apperror.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating GitHub user %d: %w", gh.ID, err)
		}

		s.logger.Info("user registered via GitHub",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
		)
		return s.issue(user)
	}

	return nil, apperror.Conflict("user", base)
}

// GetUserByID returns the signed-in user's record.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("not signed in")
	}
	return s.users.GetUserByID(ctx, id)
}

// UserExists reports whether id still names an account. Only a definite
// "not found" counts as gone; a database error is logged and the session is
// given the benefit of the doubt, so a hiccup does not sign everyone out.
func (s *AccountService) UserExists(ctx context.Context, id string) bool {
	_, err := s.users.GetUserByID(ctx, id)
	if err == nil {
		return true
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return false
	}
	s.logger.Warn("failed to check session user",
		slog.String("userID", id),
		slog.String("error", err.Error()),
	)
	return true
}

// DeleteUser removes an account with everything it wrote and every follow
// edge it is part of.
func (s *AccountService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("userID", user.ID), slog.String("username", username))
	return nil
}

// TokenTTL is the session lifetime, for the cookie's Max-Age.
func (s *AccountService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AccountService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
