package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// StaffClaims is the JWT payload issued to staff.
type StaffClaims struct {
	StaffID uuid.UUID        `json:"staff_id"`
	Role    models.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	staff    store.StaffStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthService(staff store.StaffStore, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		staff:    staff,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

type LoginResult struct {
	Token string        `json:"token"`
	Staff *models.Staff `json:"staff"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	staff, err := s.staff.FindStaffByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.IssueToken(staff)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Staff: staff}, nil
}

func (s *AuthService) RegisterStaff(ctx context.Context, email, password string, role models.StaffRole) (*models.Staff, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: email and a password of at least 6 characters are required", models.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	staff := &models.Staff{Email: email, Password: string(hashed), Role: role}
	if err := s.staff.CreateStaff(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *AuthService) IssueToken(staff *models.Staff) (string, error) {
	now := s.now()
	claims := StaffClaims{
		StaffID: staff.ID,
		Role:    staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
