package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type RegisteredIPRepository struct {
	db *DB
}

func NewRegisteredIPRepository(db *DB) *RegisteredIPRepository {
	return &RegisteredIPRepository{db: db}
}

func (r *RegisteredIPRepository) Add(ipAddress string, accountUsername *string) (*models.RegisteredIP, error) {
	now := time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO registered_ips (ip_address, account_username, registered_at) VALUES (?, ?, ?)`,
		ipAddress, accountUsername, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("recording registered IP: %w", err)
	}

	return &models.RegisteredIP{
		IPAddress:       ipAddress,
		AccountUsername: accountUsername,
		RegisteredAt:    now,
	}, nil
}

func (r *RegisteredIPRepository) Exists(ipAddress string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM registered_ips WHERE ip_address = ?`, ipAddress,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking registered IP: %w", err)
	}
	return true, nil
}

func (r *RegisteredIPRepository) DeleteExpired(ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	result, err := r.db.Exec(`DELETE FROM registered_ips WHERE registered_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired registered IPs: %w", err)
	}
	return result.RowsAffected()
}
