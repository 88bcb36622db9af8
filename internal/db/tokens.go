package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type DownloadTokenRepository struct {
	db *DB
}

func NewDownloadTokenRepository(db *DB) *DownloadTokenRepository {
	return &DownloadTokenRepository{db: db}
}

func (r *DownloadTokenRepository) Create(token *models.DownloadToken) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(
		`INSERT INTO download_tokens (token, server_path, user_filename, kind, created_at, expires_at, is_used)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		token.Token,
		token.ServerPath,
		token.UserFilename,
		string(token.Kind),
		now,
		token.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating download token: %w", err)
	}
	token.CreatedAt = now
	return nil
}

// Redeem marks the token used and returns it, in one statement. Kind
// mismatch, expiry, and a previous redemption all look the same to the
// caller: ErrNotFound. The second of two racing redeems loses.
func (r *DownloadTokenRepository) Redeem(tokenValue string, kind models.ArtifactKind) (*models.DownloadToken, error) {
	var token models.DownloadToken
	var kindStr string

	err := r.db.QueryRow(
		`UPDATE download_tokens SET is_used = 1
		 WHERE token = ? AND kind = ? AND is_used = 0 AND expires_at > ?
		 RETURNING token, server_path, user_filename, kind, created_at, expires_at, is_used`,
		tokenValue, string(kind), time.Now().UTC(),
	).Scan(
		&token.Token,
		&token.ServerPath,
		&token.UserFilename,
		&kindStr,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.IsUsed,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redeeming download token: %w", err)
	}

	token.Kind = models.ArtifactKind(kindStr)
	return &token, nil
}

func (r *DownloadTokenRepository) Delete(tokenValue string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM download_tokens WHERE token = ?`, tokenValue)
	if err != nil {
		return false, fmt.Errorf("deleting download token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// FindExpiredOrUsed returns the tokens whose files should be removed from
// disk before the rows themselves are swept.
func (r *DownloadTokenRepository) FindExpiredOrUsed() ([]*models.DownloadToken, error) {
	rows, err := r.db.Query(
		`SELECT token, server_path, user_filename, kind, created_at, expires_at, is_used
		 FROM download_tokens WHERE expires_at < ? OR is_used = 1`,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying stale download tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.DownloadToken
	for rows.Next() {
		var (
			token   models.DownloadToken
			kindStr string
		)
		if err := rows.Scan(&token.Token, &token.ServerPath, &token.UserFilename, &kindStr, &token.CreatedAt, &token.ExpiresAt, &token.IsUsed); err != nil {
			return nil, fmt.Errorf("scanning download token: %w", err)
		}
		token.Kind = models.ArtifactKind(kindStr)
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}

func (r *DownloadTokenRepository) DeleteExpiredOrUsed() (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM download_tokens WHERE expires_at < ? OR is_used = 1`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting stale download tokens: %w", err)
	}
	return result.RowsAffected()
}
