package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type authRepository interface {
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	FindLatestCode(ctx context.Context, email string) (*models.VerificationCode, error)
	ConsumeCode(ctx context.Context, id string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	RevokeEmailRefreshTokens(ctx context.Context, email string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type studentDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// CodeSender delivers a login code to a student, typically over email.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogCodeSender writes codes to the application log instead of sending
// email. Used in development and tests.
type LogCodeSender struct {
	Logger *zap.Logger
}

// Send logs the code.
func (s *LogCodeSender) Send(_ context.Context, email, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("verification code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

// AuthConfig defines configuration for the email-code login flow.
type AuthConfig struct {
	AllowedEmailDomain string
	CodeTTL            time.Duration
	CodeLength         int
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// AuthService implements passwordless login: a short-lived emailed code is
// exchanged for a JWT access token plus a rotating refresh token.
type AuthService struct {
	repo      authRepository
	students  studentDirectory
	sender    CodeSender
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authRepository, students studentDirectory, sender CodeSender, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if sender == nil {
		sender = &LogCodeSender{Logger: logger}
	}
	if config.CodeLength <= 0 {
		config.CodeLength = 6
	}
	if config.CodeTTL <= 0 {
		config.CodeTTL = 10 * time.Minute
	}
	return &AuthService{repo: repo, students: students, sender: sender, validator: validate, logger: logger, config: config}
}

// RequestCode issues a verification code for the email. Only addresses of
// the configured domain are accepted; codes are stored hashed.
func (s *AuthService) RequestCode(ctx context.Context, req models.RequestCodeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid code request payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if s.config.AllowedEmailDomain != "" && !strings.HasSuffix(email, "@"+s.config.AllowedEmailDomain) {
		return appErrors.Clone(appErrors.ErrEmailNotAllowed, "")
	}

	code, err := s.generateCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate verification code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash verification code")
	}

	record := &models.VerificationCode{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().UTC().Add(s.config.CodeTTL),
	}
	if err := s.repo.CreateVerificationCode(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist verification code")
	}

	if err := s.sender.Send(ctx, email, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deliver verification code")
	}

	return nil
}

// VerifyCode exchanges an email plus code for an access/refresh token pair.
// A wrong email and a wrong code are indistinguishable in the response.
func (s *AuthService) VerifyCode(ctx context.Context, req models.VerifyCodeRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verify payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	stored, err := s.repo.FindLatestCode(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCode, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch verification code")
	}

	if time.Now().UTC().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCode, "")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(req.Code)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCode, "")
	}

	if err := s.repo.ConsumeCode(ctx, stored.ID); err != nil {
		s.logger.Warn("failed to consume verification code", zap.Error(err))
	}

	info, err := s.resolveUserInfo(ctx, email)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.generateAccessToken(info.Email, info.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refresh, err := s.issueRefreshToken(ctx, email, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		Email:     &email,
		Action:    models.AuditActionLogin,
		Resource:  "auth",
		NewValues: []byte(`{"status":"success"}`),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
		User:         info,
	}, nil
}

// RefreshToken rotates a refresh token and returns a new access token.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	stored, err := s.repo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch refresh token")
	}

	if stored.Revoked || time.Now().UTC().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}

	info, err := s.resolveUserInfo(ctx, stored.Email)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.generateAccessToken(info.Email, info.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refresh, err := s.issueRefreshToken(ctx, stored.Email, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	return &models.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Logout revokes the provided refresh token for the given email.
func (s *AuthService) Logout(ctx context.Context, email, refreshToken string) error {
	stored, err := s.repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}

	if stored.Email != email {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// resolveUserInfo determines the role and group of the email. Admins are
// exactly the rows of the admins table; everyone else is a student. An
// admin need not appear in the group mapping.
func (s *AuthService) resolveUserInfo(ctx context.Context, email string) (models.UserInfo, error) {
	info := models.UserInfo{Email: email, Role: models.RoleStudent}

	isAdmin, err := s.students.IsAdmin(ctx, email)
	if err != nil {
		return info, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
	}
	if isAdmin {
		info.Role = models.RoleAdmin
	}

	student, err := s.students.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return info, nil
		}
		return info, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student group")
	}
	info.StudentGroup = student.StudentGroup
	info.Year = student.Year
	return info, nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, email, ip, userAgent string) (*models.RefreshToken, error) {
	value, err := s.generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		Email:     email,
		Token:     value,
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
		Revoked:   false,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.repo.CreateRefreshToken(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}
	return token, nil
}

func (s *AuthService) generateAccessToken(email string, role models.UserRole) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < s.config.CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.config.CodeLength, n), nil
}

func (s *AuthService) generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
