package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"messmate/internal/auth"
	"messmate/internal/cache"
	"messmate/internal/queue"
)

// Store is the persistence used by Service.
type Store interface {
	CreateInvited(ctx context.Context, u User) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	EnsureAdmin(ctx context.Context, u User) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	Allowed(ctx context.Context, email string) (allowed, registered bool, err error)
	MarkRegistered(ctx context.Context, email string) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Tokens auth.TokenPair
	User   User
}

const (
	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	passwordLength   = 8
	minPasswordLen   = 6
)

// Service implements the account flows.
type Service struct {
	store  Store
	otps   cache.Cache
	jobs   queue.Queue
	signer *auth.Signer
	otpTTL time.Duration
	cost   int
	log    *zap.Logger
}

// NewService creates a service. OTPs live in otps for otpTTL.
func NewService(store Store, otps cache.Cache, jobs queue.Queue, signer *auth.Signer, otpTTL time.Duration, log *zap.Logger) *Service {
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	return &Service{
		store:  store,
		otps:   otps,
		jobs:   jobs,
		signer: signer,
		otpTTL: otpTTL,
		cost:   bcrypt.DefaultCost,
		log:    log,
	}
}

// Invite creates a student with a generated password, allow-lists the email and
// queues the credentials mail.
func (s *Service) Invite(ctx context.Context, fullName, email string) (User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || !validEmail(email) {
		return User{}, fmt.Errorf("%w: name and a valid email are required", ErrInvalidInput)
	}
	password, err := generatePassword()
	if err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateInvited(ctx, User{FullName: fullName, Email: email, Role: auth.RoleStudent, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.log.Warn("invite for existing student", zap.String("email", email))
		}
		return User{}, err
	}
	if err := s.enqueue(ctx, queue.TypeInviteEmail, queue.InviteEmail{To: email, FullName: fullName, Password: password}); err != nil {
		return User{}, err
	}
	s.log.Info("student invited", zap.Int64("user_id", u.ID), zap.String("email", email))
	return u, nil
}

// RequestOTP mails a 4-digit code to an allow-listed email.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	allowed, _, err := s.store.Allowed(ctx, email)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAllowed
	}
	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Set(ctx, otpKey(email), otp, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.enqueue(ctx, queue.TypeOTPEmail, queue.OTPEmail{To: email, OTP: otp})
}

// VerifyOTP checks the code and marks the email as verified. A code can be used once.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return fmt.Errorf("%w: email and otp are required", ErrInvalidInput)
	}
	want, err := s.otps.Get(ctx, otpKey(email))
	if errors.Is(err, cache.ErrMiss) {
		return ErrOTPExpired
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(otp)) != 1 {
		return ErrInvalidOTP
	}
	if err := s.otps.Delete(ctx, otpKey(email)); err != nil {
		s.log.Warn("delete used otp", zap.String("email", email), zap.Error(err))
	}
	return s.store.MarkRegistered(ctx, email)
}

// Signup creates the account of a verified email.
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || !validEmail(email) || len(password) < minPasswordLen {
		return User{}, fmt.Errorf("%w: name, email and a password of at least %d characters are required", ErrInvalidInput, minPasswordLen)
	}
	_, registered, err := s.store.Allowed(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !registered {
		return User{}, ErrNotVerified
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateUser(ctx, User{FullName: fullName, Email: email, Role: auth.RoleStudent, PasswordHash: string(hash)})
}

// Login checks the password and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.store.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	tokens, err := s.signer.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue tokens: %w", err)
	}
	return LoginResult{Tokens: tokens, User: u}, nil
}

// Profile returns the user with id.
func (s *Service) Profile(ctx context.Context, id int64) (User, error) {
	return s.store.ByID(ctx, id)
}

// EnsureAdmin creates or promotes the bootstrap admin. Empty credentials are a no-op.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.EnsureAdmin(ctx, User{FullName: "Administrator", Email: email, PasswordHash: string(hash)})
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.log.Info("admin account ready", zap.Int64("user_id", u.ID), zap.String("email", email))
	return nil
}

func (s *Service) enqueue(ctx context.Context, typ string, payload any) error {
	msg, err := queue.NewMessage(typ, payload)
	if err != nil {
		return err
	}
	if err := s.jobs.Publish(ctx, msg); err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	return nil
}

func otpKey(email string) string { return "otp:" + email }

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

func generatePassword() (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, passwordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
