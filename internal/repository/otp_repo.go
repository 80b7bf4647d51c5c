package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
)

// OTPRepository handles database operations for one-time codes
type OTPRepository struct {
	db database.DBTX
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db database.DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OTPRepository) WithTx(tx database.DBTX) *OTPRepository {
	return &OTPRepository{db: tx}
}

// CreateOTP stores a freshly issued code
func (r *OTPRepository) CreateOTP(ctx context.Context, otp *models.OtpRecord) error {
	query := `
		INSERT INTO otp_verifications (contact, code, code_hash, expires_at, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		otp.Contact, otp.Code, otp.CodeHash, otp.ExpiresAt.UTC(), false, otp.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}
	otp.ID = id
	return nil
}

// GetActiveOTP returns the most recently issued unverified, unexpired code
// matching contact and code. It returns nil when none matches.
func (r *OTPRepository) GetActiveOTP(ctx context.Context, contact, code string, now time.Time) (*models.OtpRecord, error) {
	query := `
		SELECT id, contact, code, code_hash, expires_at, verified, created_at
		FROM otp_verifications
		WHERE contact = ? AND code = ? AND verified = ? AND expires_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	otp := &models.OtpRecord{}
	err := r.db.QueryRowContext(ctx, query, contact, code, false, now.UTC()).Scan(
		&otp.ID,
		&otp.Contact,
		&otp.Code,
		&otp.CodeHash,
		&otp.ExpiresAt,
		&otp.Verified,
		&otp.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}

	return otp, nil
}

// MarkVerified flips the verified flag if it is still unset. It reports
// false when another verification got there first.
func (r *OTPRepository) MarkVerified(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE otp_verifications SET verified = ? WHERE id = ? AND verified = ?", true, id, false)
	if err != nil {
		return false, fmt.Errorf("failed to mark otp verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark otp verified: %w", err)
	}
	return rows == 1, nil
}

// DeleteExpiredBefore removes codes that expired before cutoff
func (r *OTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM otp_verifications WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return result.RowsAffected()
}

// CountForContactSince counts codes issued to contact at or after since
func (r *OTPRepository) CountForContactSince(ctx context.Context, contact string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM otp_verifications WHERE contact = ? AND created_at >= ?", contact, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count otps: %w", err)
	}
	return count, nil
}
