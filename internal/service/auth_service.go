package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jp973/groupnotify-backend/internal/models"
	"github.com/jp973/groupnotify-backend/internal/repository"
	"github.com/jp973/groupnotify-backend/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	otpTTL          = 10 * time.Minute
)

// EmailSender delivers transactional mail. Implementations live outside the
// service so tests can inject a fake.
type EmailSender interface {
	SendOTP(to, otp string) error
}

type AuthService struct {
	userRepo         repository.UserRepositoryInterface
	refreshTokenRepo repository.RefreshTokenRepositoryInterface
	otpRepo          repository.OtpTokenRepositoryInterface
	email            EmailSender
}

func NewAuthService(
	userRepo repository.UserRepositoryInterface,
	refreshTokenRepo repository.RefreshTokenRepositoryInterface,
	otpRepo repository.OtpTokenRepositoryInterface,
	email EmailSender,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		otpRepo:          otpRepo,
		email:            email,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
}

func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	input.Email = validation.NormalizeEmail(input.Email)
	if !validation.ValidateEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if !validation.ValidateUsername(input.Username) {
		return nil, errors.New("invalid username")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, fmt.Errorf("password must be at least %d characters", validation.PasswordMinLength())
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, errors.New("email already exists")
	}
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}
	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair, revoking the
// old one.
func (s *AuthService) Refresh(refreshToken string) (*AuthResponse, error) {
	hash := hashToken(refreshToken)
	stored, err := s.refreshTokenRepo.FindValidByHash(hash)
	if err != nil {
		return nil, errors.New("invalid or expired refresh token")
	}
	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if err := s.refreshTokenRepo.RevokeByHash(hash); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// Logout revokes the refresh token; access tokens simply expire.
func (s *AuthService) Logout(refreshToken string) error {
	return s.refreshTokenRepo.RevokeByHash(hashToken(refreshToken))
}

// ForgotPassword issues a 6-digit OTP to the address if it is registered.
// Always succeeds from the caller's view so addresses cannot be probed.
func (s *AuthService) ForgotPassword(email string) error {
	email = validation.NormalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(email); err != nil {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.otpRepo.Upsert(email, otp, time.Now().Add(otpTTL)); err != nil {
		return err
	}
	return s.email.SendOTP(email, otp)
}

// ResetPassword consumes a valid OTP and replaces the user's password.
func (s *AuthService) ResetPassword(email, otp, newPassword string) error {
	email = validation.NormalizeEmail(email)
	if email == "" || otp == "" || newPassword == "" {
		return errors.New("email, otp and new password are required")
	}
	if !validation.ValidatePassword(newPassword) {
		return fmt.Errorf("password must be at least %d characters", validation.PasswordMinLength())
	}

	token, err := s.otpRepo.FindByEmailAndOTP(email, otp)
	if err != nil {
		return errors.New("invalid or expired OTP")
	}
	if token.IsExpired(time.Now()) {
		return errors.New("OTP has expired")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return errors.New("user not found")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		return err
	}
	return s.otpRepo.DeleteByEmail(email)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokenRepo.Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.ToResponse(),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
