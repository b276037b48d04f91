package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users      repository.Users
	sessions   session.Store
	sessionTTL time.Duration
	log        *logrus.Entry
}

func NewAuthService(users repository.Users, sessions session.Store, ttl time.Duration, log *logrus.Entry) *AuthService {
	return &AuthService{users: users, sessions: sessions, sessionTTL: ttl, log: log}
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates the account and opens a session for it. Admins cannot self-register.
func (s *AuthService) Register(ctx context.Context, req dtos.RegisterRequest) (*models.User, session.Session, error) {
	role := models.RoleJobseeker
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	if role == models.RoleAdmin {
		return nil, session.Session{}, apperr.Forbidden("Cannot register as admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, session.Session{}, apperr.Internal("failed to hash password", err)
	}
	user := &models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
	}
	if req.PhoneNumber != "" {
		phone := req.PhoneNumber
		user.PhoneNumber = &phone
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.CodeConflict) {
			return nil, session.Session{}, apperr.Wrap(apperr.CodeConflict, "User already exists", err)
		}
		return nil, session.Session{}, err
	}

	sess, err := s.openSession(ctx, user)
	if err != nil {
		return nil, session.Session{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, sess, nil
}

func (s *AuthService) Login(ctx context.Context, req dtos.LoginRequest) (*models.User, session.Session, error) {
	invalid := apperr.New(apperr.CodeUnauthorized, "Invalid email or password")
	user, err := s.users.GetByEmail(ctx, req.Email)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, session.Session{}, invalid
	}
	if err != nil {
		return nil, session.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, session.Session{}, invalid
	}
	sess, err := s.openSession(ctx, user)
	if err != nil {
		return nil, session.Session{}, err
	}
	return user, sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, "Session store unavailable", err)
	}
	return nil
}

// Status returns the signed-in user and slides the session expiry forward.
func (s *AuthService) Status(ctx context.Context, id models.Identity, token string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, token, s.sessionTTL); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.log.WithError(err).Warn("session refresh failed")
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (session.Session, error) {
	sess, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return session.Session{}, apperr.Wrap(apperr.CodeUnavailable, "Session store unavailable", err)
	}
	return sess, nil
}
