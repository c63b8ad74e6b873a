package services

import (
	"context"
	"errors"

	"shift-backend/internal/auth"
	"shift-backend/internal/cache"
	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
)

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
	}
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// Signup creates a new user with hashed password
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, errors.New("name, email, and password are required")
	}

	// Check if user already exists
	existingUser, _ := s.Repo.GetByEmail(ctx, req.Email)
	if existingUser != nil && existingUser.ID != 0 {
		return nil, errors.New("user with this email already exists")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

// Login authenticates a user and returns a JWT token. Verified credentials
// are cached so repeat logins from field devices skip the bcrypt check.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}

	if userID, ok := cache.GetCachedAuth(ctx, req.Email, req.Password); ok {
		user, err := s.Repo.Get(ctx, int(userID))
		if err == nil && user.IsActive {
			token, err := s.JWTManager.GenerateToken(user)
			if err == nil {
				return &models.AuthResponse{Token: token, User: user}, nil
			}
		}
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account suspended")
	}

	cache.CacheAuth(ctx, req.Email, req.Password, int64(user.ID))

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}
