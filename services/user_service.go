package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"gorm.io/gorm"
)

// UserService handles registration, login and profiles
type UserService struct {
	db           *gorm.DB
	jwtManager   *auth.JWTManager
	passwordCost int
}

// NewUserService creates a new user service. passwordCost <= 0 uses the bcrypt default.
func NewUserService(db *gorm.DB, jwtManager *auth.JWTManager, passwordCost int) *UserService {
	if passwordCost <= 0 {
		passwordCost = auth.DefaultCost
	}
	return &UserService{db: db, jwtManager: jwtManager, passwordCost: passwordCost}
}

// RegisterInput is the input for Register
type RegisterInput struct {
	Email    string
	Password string
	Role     model.Role
}

// LoginResult is a signed access token and the user it belongs to
type LoginResult struct {
	AccessToken string
	Token       *auth.IssuedToken
	User        *model.User
}

// Register validates and stores a new user. Emails are unique.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	user, err := domain.NewUser(input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	user.PasswordHash, err = auth.HashPasswordWithCost(input.Password, s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// A concurrent registration can win the race past the count check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues an access token
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	issued, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{AccessToken: issued.Token, Token: issued, User: &user}, nil
}

// GetProfile returns the user with the given id
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
