package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/linemk/ecom-shop/internal/domain/models"
	security "github.com/linemk/ecom-shop/internal/jwt-new"
	"github.com/linemk/ecom-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// EmailSender отправляет письма; единственная реализация — простой SMTP.
// Шаблонизация писем сознательно за рамками системы.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AuthService — регистрация с подтверждением по одноразовому коду и вход.
type AuthService interface {
	// Register сохраняет заявку на регистрацию и отправляет код на почту.
	Register(ctx context.Context, email, password string) error
	// VerifyOTP сверяет код и создаёт пользователя.
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	// Login возвращает JWT при верной паре логин/пароль.
	Login(ctx context.Context, email, password string) (string, error)
}

type authService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	otpRepo  storage.OTPStorage
	mail     EmailSender
	tokenTTL time.Duration
	otpTTL   time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, otpRepo storage.OTPStorage,
	mail EmailSender, tokenTTL, otpTTL time.Duration) AuthService {
	return &authService{
		log:      log,
		userRepo: userRepo,
		otpRepo:  otpRepo,
		mail:     mail,
		tokenTTL: tokenTTL,
		otpTTL:   otpTTL,
	}
}

// pendingSignup — отложенная регистрация, живёт в хранилище кодов до
// подтверждения; пароль уже захэширован.
type pendingSignup struct {
	Email    string `json:"email"`
	PassHash []byte `json:"pass_hash"`
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (a *authService) Register(ctx context.Context, email, password string) error {
	const op = "service.AuthService.Register"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	if _, err := a.userRepo.GetUserByEmail(ctx, email); err == nil {
		logger.Warn("user already exists")
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to check user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	code, err := generateOTP()
	if err != nil {
		logger.Error("failed to generate otp", slog.Any("error", err))
		return fmt.Errorf("%s: failed to generate otp: %w", op, err)
	}

	payload, err := json.Marshal(pendingSignup{Email: email, PassHash: passHash})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := a.otpRepo.Save(ctx, email, code, payload, a.otpTTL); err != nil {
		logger.Error("failed to save otp", slog.Any("error", err))
		return fmt.Errorf("%s: failed to save otp: %w", op, err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(a.otpTTL.Minutes()))
	if err := a.mail.Send(ctx, email, "Verify your account", body); err != nil {
		logger.Error("failed to send otp email", slog.Any("error", err))
		return fmt.Errorf("%s: failed to send otp email: %w", op, err)
	}

	logger.Info("signup otp sent")
	return nil
}

func (a *authService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	const op = "service.AuthService.VerifyOTP"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	stored, payload, err := a.otpRepo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrOTPNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidOTP)
		}
		logger.Error("failed to load otp", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to load otp: %w", op, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		logger.Warn("otp mismatch")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidOTP)
	}

	var pending pendingSignup
	if err := json.Unmarshal(payload, &pending); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Email:    pending.Email,
		PassHash: pending.PassHash,
		Role:     models.RoleCustomer,
	})
	if err != nil {
		logger.Error("failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	if err := a.otpRepo.Delete(ctx, email); err != nil {
		// код одноразовый по TTL, поэтому ошибка удаления не фатальна
		logger.Warn("failed to delete otp", slog.Any("error", err))
	}

	token, err := security.NewToken(user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return token, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}
