package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/repository"
	"github.com/andhikafr19/eo-app/pkg/auth"
	"github.com/andhikafr19/eo-app/pkg/config"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	CreateStaff(ctx context.Context, email, password, name, role string) (*domain.Staff, error)
}

type authService struct {
	staffRepo repository.StaffRepository
	config    *config.Config
}

func NewAuthService(staffRepo repository.StaffRepository, config *config.Config) AuthService {
	return &authService{staffRepo: staffRepo, config: config}
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	staff, err := s.staffRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find staff: %w", err)
	}
	if staff == nil {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, staff.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(staff.ID, staff.Email, staff.Role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: token,
		Role:        staff.Role,
		Name:        staff.Name,
	}, nil
}

func (s *authService) CreateStaff(ctx context.Context, email, password, name, role string) (*domain.Staff, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.staffRepo.Create(ctx, strings.ToLower(strings.TrimSpace(email)), hash, name, role)
}
