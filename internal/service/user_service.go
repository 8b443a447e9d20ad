package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Amna-hassan22/BrewnBean/internal/domain"
	"github.com/Amna-hassan22/BrewnBean/internal/repository"
)

// UserService serves profile reads and the admin user listing.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the sanitized view of one account.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// UserListResult pages the admin listing.
type UserListResult struct {
	Users      []*domain.Profile `json:"users"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// ListUsers returns a page of sanitized profiles with an optional
// name/email search. Pages are 1-based; out-of-range inputs clamp.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int, search string) (*UserListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	users, total, err := s.userRepo.List(ctx, perPage, (page-1)*perPage, search)
	if err != nil {
		return nil, err
	}

	profiles := make([]*domain.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.ToProfile())
	}

	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	return &UserListResult{
		Users:      profiles,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}
