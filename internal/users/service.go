package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/KunalSingh5431/smartPDF/internal/shared/auth"
)

const minPasswordLen = 6

type Service struct {
	Repo Repo
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) hash(password string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return email, nil
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if len(password) < minPasswordLen {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, err
	}
	if user.PasswordHash == "" {
		return "", User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := auth.SignJWT(user.ID, user.Email, user.Name)
	if err != nil {
		return "", User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// Update changes the caller's own profile. A new password requires the current one.
func (s *Service) Update(ctx context.Context, actorID, userID string, in UpdateInput) (User, error) {
	if actorID == "" || actorID != userID {
		return User{}, ErrForbidden
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if strings.TrimSpace(in.Email) != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return User{}, err
		}
		user.Email = email
	}
	if in.NewPassword != "" {
		if len(in.NewPassword) < minPasswordLen {
			return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
		}
		if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return User{}, ErrInvalidCredentials
		}
		hash, err := s.hash(in.NewPassword)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()

	if err := s.Repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpsertGoogle finds the account for a Google identity by email, linking the
// subject on first sign-in, or creates a password-less account.
func (s *Service) UpsertGoogle(ctx context.Context, sub, email, name string) (User, error) {
	sub = strings.TrimSpace(sub)
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	if sub == "" {
		return User{}, fmt.Errorf("%w: google subject is required", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	existing, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.GoogleSub == sub {
			return existing, nil
		}
		existing.GoogleSub = sub
		existing.UpdatedAt = s.now()
		if err := s.Repo.Update(ctx, existing); err != nil {
			return User{}, err
		}
		return existing, nil
	case errors.Is(err, ErrNotFound):
		now := s.now()
		user := User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			GoogleSub: sub,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			return User{}, err
		}
		return user, nil
	default:
		return User{}, err
	}
}
