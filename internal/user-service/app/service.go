package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/user-service/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Repository interface {
	// Create returns domain.ErrEmailTaken when the email is already used.
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

// Session is what a successful login hands back to the transport layer.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	hashCost int
	now      func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("please provide all the required fields")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperr.Validation("invalid email address")
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Validation("user already exists")
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("look up user: %w", err)
	}

	return s.create(ctx, strings.ToLower(in.Username), in.Email, in.Password, domain.RoleUser)
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, in domain.Credentials) (*Session, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("please provide all the required fields")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperr.Validation("invalid email address")
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperr.Unauthorized("user doesn't exist")
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		slog.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one is already
// registered. Used at start-up to bootstrap the dashboard login.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			slog.WarnContext(ctx, "bootstrap admin email belongs to a regular user", "user_id", existing.ID)
		}
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	u, err := s.create(ctx, "admin", email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "bootstrap admin created", "user_id", u.ID)
	return nil
}

func (s *Service) create(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	err = s.repo.Create(ctx, u)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, apperr.Validation("user already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
