package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rehna-jp/Louer/internal/auth"
	"github.com/rehna-jp/Louer/internal/config"
	"github.com/rehna-jp/Louer/internal/db"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"gorm.io/gorm"
)

// UserService handles registration, login and token rotation.
type UserService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewUserService(db *gorm.DB, cfg config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

type UserDTO struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Role      models.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func toUserDTO(u models.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Phone: u.Phone, CreatedAt: u.CreatedAt}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     models.Role
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"token"`
	RefreshToken string  `json:"refresh_token"`
}

// Register creates a tenant or landlord account. Admins are provisioned out of band.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := in.Role
	if role == "" {
		role = models.RoleTenant
	}
	if role != models.RoleTenant && role != models.RoleLandlord {
		return nil, Invalid("role must be tenant or landlord")
	}
	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		result, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login checks credentials and issues an access and refresh token pair.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(s.db.WithContext(ctx), user)
}

// Refresh revokes oldRT and issues a new pair.
func (s *UserService) Refresh(ctx context.Context, oldRT string) (*AuthResult, error) {
	var result *AuthResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := auth.ValidateRefreshToken(tx, oldRT)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if err := auth.RevokeRefreshToken(tx, oldRT); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		var user models.User
		if err := tx.First(&user, rec.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		result, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UserService) Me(ctx context.Context, p policy.Principal) (*UserDTO, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (s *UserService) issueTokens(tx *gorm.DB, user models.User) (*AuthResult, error) {
	p := policy.Principal{ID: user.ID, Email: user.Email, Role: user.Role}
	at, err := auth.GenerateAccessToken(p, s.cfg.JWTSecret, s.cfg.AccessTokenTTLMinutes)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	exp := time.Now().UTC().Add(time.Duration(s.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(tx, user.ID, rt, exp); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &AuthResult{User: toUserDTO(user), AccessToken: at, RefreshToken: rt}, nil
}
