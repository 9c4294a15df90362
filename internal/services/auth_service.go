package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
	"jecistore/internal/validate"
)

var (
	ErrBadCreds      = errors.New("invalid username or password")
	ErrUsernameTaken = errors.New("username already taken")
)

type AuthService struct {
	DB       *sqlx.DB
	Users    *repos.UserRepo
	Sessions *repos.SessionRepo
	Log      *zap.Logger
}

func NewAuthService(db *sqlx.DB, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{DB: db, Users: repos.NewUserRepo(db), Sessions: repos.NewSessionRepo(db), Log: logger}
}

type Registration struct {
	Username string
	Email    string
	Password string
	Phone    string
	Address  string
	Seller   bool
}

// Register creates the user and, in the same transaction, its profile.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	username, ok := validate.Username(r.Username)
	if !ok {
		return nil, &domain.ValidationError{Field: "username", Reason: "3-30 letters, digits, dot, dash or underscore"}
	}
	email, ok := validate.Email(r.Email)
	if !ok {
		return nil, &domain.ValidationError{Field: "email", Reason: "invalid email"}
	}
	if !validate.Password(r.Password) {
		return nil, &domain.ValidationError{Field: "password", Reason: "8-64 chars with upper, lower, digit and symbol"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{ID: uuid.NewString(), Username: username, Email: email, Hash: string(hash)}

	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repos.NewUserRepo(tx)
		_, err := users.ByUsername(ctx, username)
		switch {
		case err == nil:
			return ErrUsernameTaken
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		return users.CreateProfile(ctx, domain.Profile{
			UserID:   u.ID,
			IsSeller: r.Seller,
			Phone:    strings.TrimSpace(r.Phone),
			Address:  strings.TrimSpace(r.Address),
		})
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("auth.register", zap.String("user_id", u.ID), zap.Bool("seller", r.Seller))
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Sessions.BindUser(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Sessions.UnbindUser(ctx, sid)
}

// CurrentUser returns nil with no error for an anonymous session.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	u, err := s.Sessions.User(ctx, sid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *AuthService) IsSeller(ctx context.Context, userID string) (bool, error) {
	p, ok, err := s.Users.Profile(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return p.IsSeller, nil
}

// Profile returns the user's profile; ok is false when none exists.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	return s.Users.Profile(ctx, userID)
}
