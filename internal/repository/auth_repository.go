package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// AuthRepository persists verification codes, refresh tokens and audit logs.
type AuthRepository struct {
	db *sqlx.DB
}

// NewAuthRepository instantiates an auth repository.
func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// CreateVerificationCode stores a hashed login code.
func (r *AuthRepository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO email_codes (id, email, code_hash, expires_at, consumed, created_at)
        VALUES (:id, :email, :code_hash, :expires_at, :consumed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("create verification code: %w", err)
	}
	return nil
}

// FindLatestCode returns the newest unconsumed code for an email.
func (r *AuthRepository) FindLatestCode(ctx context.Context, email string) (*models.VerificationCode, error) {
	const query = `SELECT id, email, code_hash, expires_at, consumed, created_at FROM email_codes
        WHERE email = $1 AND consumed = FALSE ORDER BY created_at DESC LIMIT 1`
	var code models.VerificationCode
	if err := r.db.GetContext(ctx, &code, query, email); err != nil {
		return nil, err
	}
	return &code, nil
}

// ConsumeCode marks a code as used.
func (r *AuthRepository) ConsumeCode(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE email_codes SET consumed = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a new refresh token.
func (r *AuthRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, email, token, expires_at, created_at, revoked, ip_address, user_agent)
        VALUES (:id, :email, :token, :expires_at, :created_at, :revoked, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken loads a refresh token by value.
func (r *AuthRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, email, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
        FROM refresh_tokens WHERE token = $1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeEmailRefreshTokens revokes every live token for an email.
func (r *AuthRepository) RevokeEmailRefreshTokens(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE email = $1 AND revoked = FALSE`, email, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// CreateAuditLog appends an audit record.
func (r *AuthRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, email, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :email, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
