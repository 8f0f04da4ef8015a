package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/DummAir/DummAirApp-sub001/internal/repository"
	"github.com/DummAir/DummAirApp-sub001/internal/service/notify"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// Email-only event types: they ride the notifications topic but never
// produce an in-app row.
const (
	eventEmailVerification = domain.NotificationType("email_verification")
	eventPasswordReset     = domain.NotificationType("password_reset")
)

type AuthUseCase interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	IssueToken(ctx context.Context, userID, email string, tokenType domain.TokenType) (string, error)
	RedeemToken(ctx context.Context, rawToken string, tokenType domain.TokenType) (*domain.VerificationToken, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event notify.Event)
}

type AuthService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	dispatcher Dispatcher
	jwtSecret  []byte
	appBaseURL string
	now        func() time.Time
}

type AuthServiceOption func(*AuthService)

func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, dispatcher Dispatcher, jwtSecret, appBaseURL string, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		users:      users,
		tokens:     tokens,
		dispatcher: dispatcher,
		jwtSecret:  []byte(jwtSecret),
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Signup creates the account, emails a verification link, and returns a
// session token so the user is signed in immediately.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	}
	if len(input.Password) < 8 {
		return nil, "", domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", domain.ValidationError{Field: "email", Msg: "already registered"}
		}
		return nil, "", err
	}

	rawToken, err := s.IssueToken(ctx, user.ID, user.Email, domain.TokenTypeEmailVerification)
	if err != nil {
		return nil, "", err
	}
	s.dispatchEmail(ctx, eventEmailVerification, user, s.verifyURL(rawToken))

	session, err := s.SignSession(user)
	if err != nil {
		return nil, "", err
	}
	return user, session, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrUnauthorized
	}

	session, err := s.SignSession(user)
	if err != nil {
		return nil, "", err
	}
	return user, session, nil
}

// IssueToken mints a 256-bit single-use token. The raw value goes to the
// caller (and from there into an email); only its sha256 hash is stored.
func (s *AuthService) IssueToken(ctx context.Context, userID, email string, tokenType domain.TokenType) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	rawToken := hex.EncodeToString(buf)

	token := &domain.VerificationToken{
		UserID:    userID,
		Email:     email,
		TokenHash: hashToken(rawToken),
		Type:      tokenType,
		ExpiresAt: s.now().Add(tokenType.TTL()),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}
	return rawToken, nil
}

// RedeemToken consumes a token exactly once. Every failure mode — unknown,
// already used, expired — surfaces as the same ErrTokenInvalid.
func (s *AuthService) RedeemToken(ctx context.Context, rawToken string, tokenType domain.TokenType) (*domain.VerificationToken, error) {
	if rawToken == "" {
		return nil, domain.ErrTokenInvalid
	}

	token, err := s.tokens.Redeem(ctx, hashToken(rawToken), tokenType, s.now())
	if err != nil {
		return nil, err
	}

	// Only email verification flips the verified flag; a password reset
	// leaves it untouched.
	if tokenType == domain.TokenTypeEmailVerification {
		if err := s.users.SetEmailVerified(ctx, token.UserID); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// RequestPasswordReset behaves identically whether or not the account
// exists, to prevent enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	rawToken, err := s.IssueToken(ctx, user.ID, user.Email, domain.TokenTypePasswordReset)
	if err != nil {
		return err
	}
	s.dispatchEmail(ctx, eventPasswordReset, user, fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, rawToken))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}

	token, err := s.RedeemToken(ctx, rawToken, domain.TokenTypePasswordReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, token.UserID, string(hash))
}

// SignSession issues the HS256 session token carried as a bearer credential.
func (s *AuthService) SignSession(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     s.now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) verifyURL(rawToken string) string {
	return fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.appBaseURL, rawToken)
}

func (s *AuthService) dispatchEmail(ctx context.Context, eventType domain.NotificationType, user *domain.User, actionURL string) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:          eventType,
		Recipient:     user.Email,
		RecipientName: user.Name,
		ActionURL:     actionURL,
	})
}

func hashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

var _ AuthUseCase = (*AuthService)(nil)
