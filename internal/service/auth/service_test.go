package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/internal/store/memory"
)

type recordingMailer struct {
	lastRecipient string
	lastCode      string
	sent          int
}

func (m *recordingMailer) SendOTP(_ context.Context, recipient, code string) error {
	m.lastRecipient = recipient
	m.lastCode = code
	m.sent++
	return nil
}

func newTestService() (*Service, *recordingMailer) {
	mailer := &recordingMailer{}
	svc := NewService(memory.New(), mailer, "test-secret", time.Hour, 5*time.Minute)
	return svc, mailer
}

func TestRegisterStudentIsVerifiedImmediately(t *testing.T) {
	svc, mailer := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Email: "maya@uni.edu", Username: "maya", Password: "long-enough", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if !u.IsVerified {
		t.Fatal("student should be verified on registration")
	}
	if mailer.sent != 0 {
		t.Fatalf("no verification mail expected for students, sent %d", mailer.sent)
	}
}

func TestRegisterCounsellorNeedsVerification(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email: "rhea@uni.edu", Username: "rhea", Password: "long-enough", Role: user.RoleCounsellor,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if u.IsVerified {
		t.Fatal("counsellor must start unverified")
	}
	if mailer.sent != 1 || mailer.lastRecipient != "rhea@uni.edu" {
		t.Fatalf("verification mail not sent: %+v", mailer)
	}

	if _, err := svc.Login(ctx, "rhea@uni.edu", "long-enough"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified before code redemption, got %v", err)
	}

	if err := svc.VerifyEmail(ctx, "rhea@uni.edu", mailer.lastCode); err != nil {
		t.Fatalf("VerifyEmail err: %v", err)
	}
	if _, err := svc.Login(ctx, "rhea@uni.edu", "long-enough"); err != nil {
		t.Fatalf("login after verification err: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"short password", RegisterInput{Email: "a@b.c", Username: "a", Password: "short", Role: user.RoleStudent}, ErrPasswordTooShort},
		{"bad role", RegisterInput{Email: "a@b.c", Username: "a", Password: "long-enough", Role: "janitor"}, ErrInvalidRole},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "taken@uni.edu", Username: "first", Password: "long-enough", Role: user.RoleStudent,
	}); err != nil {
		t.Fatalf("seed register err: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{
		Email: "taken@uni.edu", Username: "second", Password: "long-enough", Role: user.RoleStudent,
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{
		Email: "other@uni.edu", Username: "first", Password: "long-enough", Role: user.RoleStudent,
	}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestVerifyEmailRejectsWrongAndExpiredCodes(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "rhea@uni.edu", Username: "rhea", Password: "long-enough", Role: user.RoleCounsellor,
	}); err != nil {
		t.Fatalf("Register err: %v", err)
	}

	if err := svc.VerifyEmail(ctx, "rhea@uni.edu", "000000x"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, "nobody@uni.edu", "123456"); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	if err := svc.VerifyEmail(ctx, "rhea@uni.edu", mailer.lastCode); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestLoginRoundTripsToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email: "maya@uni.edu", Username: "maya", Password: "long-enough", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	token, err := svc.Login(ctx, "maya@uni.edu", "long-enough")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", token)
	}

	principal, err := svc.ValidateToken(token.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken err: %v", err)
	}
	if principal.ID != registered.ID || principal.Role != user.RoleStudent {
		t.Fatalf("token does not round-trip the principal: %+v", principal)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "maya@uni.edu", Username: "maya", Password: "long-enough", Role: user.RoleStudent,
	}); err != nil {
		t.Fatalf("Register err: %v", err)
	}

	if _, err := svc.Login(ctx, "maya@uni.edu", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@uni.edu", "long-enough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateTokenRejectsForgedToken(t *testing.T) {
	svc, _ := newTestService()
	other := NewService(memory.New(), &recordingMailer{}, "different-secret", time.Hour, 5*time.Minute)
	ctx := context.Background()

	if _, err := other.Register(ctx, RegisterInput{
		Email: "maya@uni.edu", Username: "maya", Password: "long-enough", Role: user.RoleStudent,
	}); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	forged, err := other.Login(ctx, "maya@uni.edu", "long-enough")
	if err != nil {
		t.Fatalf("Login err: %v", err)
	}

	if _, err := svc.ValidateToken(forged.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong signature, got %v", err)
	}
}
