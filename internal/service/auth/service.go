// Package auth implements registration, email verification and token-based
// login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shrey-Sawant/Sonder/internal/mail"
	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrInvalidRole        = errors.New("unknown role")
	ErrInvalidOTP         = errors.New("invalid verification code")
	ErrOTPNotFound        = errors.New("verification code not found, request a new one")
	ErrOTPExpired         = errors.New("verification code expired, request a new one")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	Phone         string `json:"phone"`
	Experience    int    `json:"experience"`
	Certification string `json:"certification"`
}

// TokenResponse is the login result the client persists.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// Service implements the identity flows.
type Service struct {
	users    store.UserStore
	mailer   mail.Sender
	secret   []byte
	tokenTTL time.Duration
	otpTTL   time.Duration

	mu   sync.Mutex
	otps map[string]otpEntry

	now func() time.Time
}

// NewService wires the auth service.
func NewService(users store.UserStore, mailer mail.Sender, secret string, tokenTTL, otpTTL time.Duration) *Service {
	return &Service{
		users:    users,
		mailer:   mailer,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		otpTTL:   otpTTL,
		otps:     make(map[string]otpEntry),
		now:      time.Now,
	}
}

// Register creates an account. Students and admins are verified immediately;
// counsellors receive a verification code by mail.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	// bcrypt truncates beyond 72 bytes.
	if len([]byte(in.Password)) > 72 {
		return user.User{}, ErrPasswordTooLong
	}
	if len(in.Password) < 8 {
		return user.User{}, ErrPasswordTooShort
	}
	if !user.ValidRole(in.Role) {
		return user.User{}, ErrInvalidRole
	}

	if _, err := s.users.UserByEmail(ctx, in.Email); err == nil {
		return user.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return user.User{}, err
	}
	if _, err := s.users.UserByUsername(ctx, in.Username); err == nil {
		return user.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return user.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.User{
		Email:         in.Email,
		Username:      in.Username,
		Password:      string(hashed),
		Role:          in.Role,
		Phone:         in.Phone,
		Experience:    in.Experience,
		Certification: in.Certification,
		IsAvailable:   true,
		IsVerified:    in.Role != user.RoleCounsellor,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, err
	}

	if u.Role == user.RoleCounsellor {
		s.issueOTP(ctx, u.Email)
	}

	return u, nil
}

// VerifyEmail redeems a verification code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	s.mu.Lock()
	entry, ok := s.otps[email]
	s.mu.Unlock()

	if !ok {
		return ErrOTPNotFound
	}
	if entry.code != code {
		return ErrInvalidOTP
	}
	if s.now().After(entry.expiresAt) {
		return ErrOTPExpired
	}

	if err := s.users.MarkVerified(ctx, email); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.otps, email)
	s.mu.Unlock()
	return nil
}

// ResendOTP issues a fresh verification code for an unverified account.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}
	s.issueOTP(ctx, email)
	return nil
}

func (s *Service) issueOTP(ctx context.Context, email string) {
	code := fmt.Sprintf("%06d", rand.IntN(1000000))

	s.mu.Lock()
	s.otps[email] = otpEntry{code: code, expiresAt: s.now().Add(s.otpTTL)}
	s.mu.Unlock()

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		log.Printf("[auth] failed to send verification code to %s: %v", email, err)
	}
}

// Login checks credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenResponse{}, ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return TokenResponse{}, ErrNotVerified
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sonder-api",
			Subject:   u.Email,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
	}, nil
}

// ValidateToken parses a bearer token and returns the principal it names.
func (s *Service) ValidateToken(tokenString string) (user.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return user.User{}, ErrInvalidToken
	}

	return user.User{
		ID:       claims.ID,
		Email:    claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
