package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediconnect/api/internal/platform/auth"
)

type Service struct {
	users  UserRepository
	issuer *auth.TokenIssuer
}

func NewService(users UserRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Register creates a patient account. Doctor and admin accounts go through
// CreateUser, which is restricted to admins at the route level.
func (s *Service) Register(ctx context.Context, email, password, fullName string, phone *string) (*User, error) {
	return s.createUser(ctx, email, password, fullName, phone, RolePatient)
}

// CreateUser creates an account with an explicit role.
func (s *Service) CreateUser(ctx context.Context, email, password, fullName string, phone *string, role string) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	return s.createUser(ctx, email, password, fullName, phone, role)
}

func (s *Service) createUser(ctx context.Context, email, password, fullName string, phone *string, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Phone:        phone,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the user with a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(u.ID, u.Role, u.FullName)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes the caller's mutable fields. Email and role are fixed.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if phone != nil {
		u.Phone = phone
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
