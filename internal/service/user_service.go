package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/repository"
)

// UpdateUserInput carries profile changes; empty fields keep their value.
type UpdateUserInput struct {
	Name        string
	Email       string
	OldPassword string
	Password    string
}

// UserService exposes profile operations.
type UserService interface {
	Update(ctx context.Context, userID uint, in UpdateUserInput) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Update changes the caller's profile. Changing the password requires the current one.
func (s *userService) Update(ctx context.Context, userID uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" && email != user.Email {
		other, err := s.repo.FindByEmail(ctx, email)
		if err == nil && other != nil {
			return nil, errors.ErrUserAlreadyExists
		}
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = email
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Password != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)); err != nil {
			return nil, errors.ErrInvalidCredentials
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
