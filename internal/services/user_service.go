package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
	"bridge-local-platform/internal/transport/dto"
)

const refreshKeyPrefix = "refresh:"

// AccessClaims is the JWT payload: subject is the user id, Role gates the
// operator/admin surfaces.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserService owns login and the refresh-token lifecycle. Refresh tokens are
// opaque values stored in Redis with a TTL; rotation on every refresh.
type UserService struct {
	users             storage.UserRepository
	redis             *redis.Client
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
}

// NewUserService creates a new UserService.
func NewUserService(users storage.UserRepository, redisClient *redis.Client, jwtSecret string, jwtExpiration, refreshExpiration time.Duration) *UserService {
	return &UserService{
		users:             users,
		redis:             redisClient,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExpiration,
		refreshExpiration: refreshExpiration,
	}
}

// Login validates credentials and issues an access/refresh token pair.
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, string, string, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("Login attempt failed for email %s: user not found", req.Email)
			return nil, "", "", ErrInvalidCredentials
		}
		log.Printf("Error fetching user by email %s during login: %v", req.Email, err)
		return nil, "", "", fmt.Errorf("internal error during login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Printf("Login attempt failed for email %s: invalid password", req.Email)
		return nil, "", "", ErrInvalidCredentials
	}

	access, err := s.issueAccessToken(user)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, "", "", err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Printf("Error stamping last login for user %s: %v", user.ID, err)
	}
	return user, access, refresh, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *UserService) Refresh(ctx context.Context, req *dto.RefreshRequest) (string, string, error) {
	userIDStr, err := s.redis.Get(ctx, refreshKeyPrefix+req.RefreshToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrInvalidCredentials
		}
		log.Printf("Error looking up refresh token: %v", err)
		return "", "", fmt.Errorf("internal error during refresh: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("internal error during refresh: %w", err)
	}

	// Rotate: the old token dies with this call.
	if err := s.redis.Del(ctx, refreshKeyPrefix+req.RefreshToken).Err(); err != nil {
		log.Printf("Error revoking rotated refresh token: %v", err)
	}

	access, err := s.issueAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Logout revokes a refresh token. Revoking an unknown token is a no-op.
func (s *UserService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	if err := s.redis.Del(ctx, refreshKeyPrefix+req.RefreshToken).Err(); err != nil {
		log.Printf("Error revoking refresh token on logout: %v", err)
		return fmt.Errorf("internal error during logout: %w", err)
	}
	return nil
}

func (s *UserService) issueAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		log.Printf("Error generating JWT token for user %s: %v", user.Email, err)
		return "", fmt.Errorf("failed to generate login token: %w", err)
	}
	return signed, nil
}

func (s *UserService) issueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.redis.Set(ctx, refreshKeyPrefix+token, userID.String(), s.refreshExpiration).Err(); err != nil {
		log.Printf("Error storing refresh token for user %s: %v", userID, err)
		return "", fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return token, nil
}
