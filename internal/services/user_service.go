package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/upload"
)

type UserService struct {
	users   repository.Users
	picture upload.Policy
}

func NewUserService(users repository.Users, picture upload.Policy) *UserService {
	return &UserService{users: users, picture: picture}
}

func (s *UserService) Me(ctx context.Context, id models.Identity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return user, err
}

// Profile loads another user's public record for an authenticated caller.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.Me(ctx, models.Identity{UserID: userID})
}

func (s *UserService) UpdateProfile(ctx context.Context, id models.Identity, req dtos.ProfileUpdateRequest) (*models.User, error) {
	user, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		if apperr.Is(err, apperr.CodeConflict) {
			return nil, apperr.Wrap(apperr.CodeConflict, "Phone number is already in use", err)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdatePicture(ctx context.Context, id models.Identity, picture models.FileBlob) (*models.User, error) {
	if err := s.picture.Check(picture); err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	user.ProfilePicture = picture
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Picture(ctx context.Context, userID uuid.UUID) (models.FileBlob, error) {
	user, err := s.users.GetByID(ctx, userID)
	if apperr.Is(err, apperr.CodeNotFound) {
		return models.FileBlob{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.FileBlob{}, err
	}
	if user.ProfilePicture.Empty() {
		return models.FileBlob{}, apperr.NotFound("Profile picture not found")
	}
	return user.ProfilePicture, nil
}

func (s *UserService) Notifications(ctx context.Context, id models.Identity) ([]models.Notification, error) {
	return nonNil(s.users.ListNotifications(ctx, id.UserID))
}

func (s *UserService) MarkNotificationsRead(ctx context.Context, id models.Identity) (int64, error) {
	return s.users.MarkNotificationsRead(ctx, id.UserID)
}
