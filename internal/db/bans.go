package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type BanRepository struct {
	db *DB
}

func NewBanRepository(db *DB) *BanRepository {
	return &BanRepository{db: db}
}

// Upsert writes a ban, updating reason/timestamp/actor when the identity is
// already banned instead of erroring.
func (r *BanRepository) Upsert(registrantID int64, accountUsername *string, bannedBy *int64, reason string) (*models.BannedIdentity, error) {
	now := time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO banned_identities (registrant_id, account_username, banned_by, reason, banned_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(registrant_id) DO UPDATE SET
		   account_username = COALESCE(excluded.account_username, account_username),
		   banned_by = COALESCE(excluded.banned_by, banned_by),
		   reason = excluded.reason,
		   banned_at = excluded.banned_at`,
		registrantID, accountUsername, bannedBy, reason, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting ban: %w", err)
	}

	return &models.BannedIdentity{
		RegistrantID:    registrantID,
		AccountUsername: accountUsername,
		BannedBy:        bannedBy,
		Reason:          reason,
		BannedAt:        now,
	}, nil
}

func (r *BanRepository) IsBanned(registrantID int64) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM banned_identities WHERE registrant_id = ?`, registrantID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking ban: %w", err)
	}
	return true, nil
}

func (r *BanRepository) Remove(registrantID int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM banned_identities WHERE registrant_id = ?`, registrantID)
	if err != nil {
		return false, fmt.Errorf("removing ban: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *BanRepository) FindAll() ([]*models.BannedIdentity, error) {
	rows, err := r.db.Query(
		`SELECT registrant_id, account_username, banned_by, reason, banned_at
		 FROM banned_identities ORDER BY banned_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying bans: %w", err)
	}
	defer rows.Close()

	var bans []*models.BannedIdentity
	for rows.Next() {
		var (
			ban      models.BannedIdentity
			username sql.NullString
			bannedBy sql.NullInt64
		)
		if err := rows.Scan(&ban.RegistrantID, &username, &bannedBy, &ban.Reason, &ban.BannedAt); err != nil {
			return nil, fmt.Errorf("scanning ban: %w", err)
		}
		ban.AccountUsername = nullStringToPtr(username)
		ban.BannedBy = nullInt64ToPtr(bannedBy)
		bans = append(bans, &ban)
	}
	return bans, rows.Err()
}

func (r *BanRepository) Find(registrantID int64) (*models.BannedIdentity, error) {
	var (
		ban      models.BannedIdentity
		username sql.NullString
		bannedBy sql.NullInt64
	)
	err := r.db.QueryRow(
		`SELECT registrant_id, account_username, banned_by, reason, banned_at
		 FROM banned_identities WHERE registrant_id = ?`,
		registrantID,
	).Scan(&ban.RegistrantID, &username, &bannedBy, &ban.Reason, &ban.BannedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ban: %w", err)
	}
	ban.AccountUsername = nullStringToPtr(username)
	ban.BannedBy = nullInt64ToPtr(bannedBy)
	return &ban, nil
}
