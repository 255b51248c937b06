package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/repository"
)

// AdminService handles console account business logic.
type AdminService struct {
	adminRepo   *repository.AdminRepository
	authService *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository, authService *AuthService) *AdminService {
	return &AdminService{adminRepo: adminRepo, authService: authService}
}

// Login authenticates an admin and embeds the role's permissions in the token.
func (s *AdminService) Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if err := s.authService.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	permissions := model.PermissionsForRole(admin.Role)
	token, err := s.authService.GenerateAdminToken(admin.ID, string(admin.Role), permissions)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &model.AdminLoginResponse{
		Token:       token,
		Admin:       *admin,
		Permissions: permissions,
	}, nil
}

// GetByID retrieves an admin account.
func (s *AdminService) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}

// List retrieves all admin accounts.
func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	return s.adminRepo.List(ctx)
}
