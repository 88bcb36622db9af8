package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type RegistrationRepository struct {
	db *DB
}

func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create links a registrant to an account username. Both columns are unique,
// so a second registration for either side fails with ErrDuplicate.
func (r *RegistrationRepository) Create(registrantID int64, accountUsername string) (*models.Registration, error) {
	now := time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO registrations (registrant_id, account_username, created_at) VALUES (?, ?, ?)`,
		registrantID, accountUsername, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating registration: %w", err)
	}

	return &models.Registration{
		RegistrantID:    registrantID,
		AccountUsername: accountUsername,
		CreatedAt:       now,
	}, nil
}

func (r *RegistrationRepository) Exists(registrantID int64) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM registrations WHERE registrant_id = ?`, registrantID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking registration: %w", err)
	}
	return true, nil
}

func (r *RegistrationRepository) FindByRegistrant(registrantID int64) (*models.Registration, error) {
	return r.findOne(`SELECT registrant_id, account_username, created_at FROM registrations WHERE registrant_id = ?`, registrantID)
}

func (r *RegistrationRepository) FindByUsername(accountUsername string) (*models.Registration, error) {
	return r.findOne(`SELECT registrant_id, account_username, created_at FROM registrations WHERE account_username = ?`, accountUsername)
}

// FindByIdentifier resolves either a numeric registrant id or an account
// username, in that order. Admin tooling accepts both forms.
func (r *RegistrationRepository) FindByIdentifier(identifier string) (*models.Registration, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		reg, err := r.FindByRegistrant(id)
		if err == nil {
			return reg, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return r.FindByUsername(identifier)
}

func (r *RegistrationRepository) FindAll() ([]*models.Registration, error) {
	rows, err := r.db.Query(
		`SELECT registrant_id, account_username, created_at FROM registrations ORDER BY account_username`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying registrations: %w", err)
	}
	defer rows.Close()

	var regs []*models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.RegistrantID, &reg.AccountUsername, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning registration: %w", err)
		}
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

func (r *RegistrationRepository) Delete(registrantID int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM registrations WHERE registrant_id = ?`, registrantID)
	if err != nil {
		return false, fmt.Errorf("deleting registration: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *RegistrationRepository) findOne(query string, args ...any) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.QueryRow(query, args...).Scan(&reg.RegistrantID, &reg.AccountUsername, &reg.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying registration: %w", err)
	}
	return &reg, nil
}
