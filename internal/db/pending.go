package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type PendingRegistrationRepository struct {
	db *DB
}

func NewPendingRegistrationRepository(db *DB) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{db: db}
}

func (r *PendingRegistrationRepository) Create(pending *models.PendingRegistration) error {
	sourceJSON, err := json.Marshal(pending.Source)
	if err != nil {
		return fmt.Errorf("encoding source context: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.Exec(
		`INSERT INTO pending_registrations (correlation_key, registrant_id, account_username, password, nickname, source_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pending.CorrelationKey,
		pending.RegistrantID,
		pending.AccountUsername,
		pending.Password,
		pending.Nickname,
		string(sourceJSON),
		now,
	)
	if err != nil {
		return fmt.Errorf("creating pending registration: %w", err)
	}

	pending.CreatedAt = now
	return nil
}

// Consume atomically fetches and deletes the pending registration for the
// given correlation key. Two racing consumers cannot both succeed: the
// DELETE ... RETURNING runs as one statement, so the loser sees ErrNotFound.
func (r *PendingRegistrationRepository) Consume(correlationKey string) (*models.PendingRegistration, error) {
	var (
		pending    models.PendingRegistration
		sourceJSON string
	)
	err := r.db.QueryRow(
		`DELETE FROM pending_registrations WHERE correlation_key = ?
		 RETURNING correlation_key, registrant_id, account_username, password, nickname, source_json, created_at`,
		correlationKey,
	).Scan(
		&pending.CorrelationKey,
		&pending.RegistrantID,
		&pending.AccountUsername,
		&pending.Password,
		&pending.Nickname,
		&sourceJSON,
		&pending.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consuming pending registration: %w", err)
	}

	if err := json.Unmarshal([]byte(sourceJSON), &pending.Source); err != nil {
		return nil, fmt.Errorf("decoding source context: %w", err)
	}
	return &pending, nil
}

func (r *PendingRegistrationRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pending_registrations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting pending registrations: %w", err)
	}
	return count, nil
}

func (r *PendingRegistrationRepository) DeleteExpired(ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	result, err := r.db.Exec(`DELETE FROM pending_registrations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired pending registrations: %w", err)
	}
	return result.RowsAffected()
}
