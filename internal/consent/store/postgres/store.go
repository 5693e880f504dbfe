// Package postgres persists consent history in the oauth2_consent_history
// table. Inserts are single-statement and therefore atomic per call.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"authbridge/internal/consent"
)

// Store implements consent.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema creates the consent history table when it does not exist yet.
func Schema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS oauth2_consent_history (
			id                   BIGSERIAL PRIMARY KEY,
			registered_client_id VARCHAR(100)  NOT NULL,
			principal_name       VARCHAR(200)  NOT NULL,
			scopes               VARCHAR(1000) NOT NULL,
			consent_time         TIMESTAMPTZ   NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create consent history table: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, record consent.ConsentRecord) (consent.ConsentRecord, error) {
	query := `
		INSERT INTO oauth2_consent_history (registered_client_id, principal_name, scopes, consent_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		record.RegisteredClientID,
		record.PrincipalName,
		record.Scopes,
		record.ConsentTime,
	).Scan(&record.ID)
	if err != nil {
		return consent.ConsentRecord{}, fmt.Errorf("insert consent record: %w", err)
	}
	return record, nil
}

func (s *Store) ListByPrincipal(ctx context.Context, principalName string) ([]consent.ConsentRecord, error) {
	return s.list(ctx, `
		SELECT id, registered_client_id, principal_name, scopes, consent_time
		FROM oauth2_consent_history
		WHERE principal_name = $1
		ORDER BY consent_time DESC, id DESC
	`, principalName)
}

func (s *Store) ListByClient(ctx context.Context, registeredClientID string) ([]consent.ConsentRecord, error) {
	return s.list(ctx, `
		SELECT id, registered_client_id, principal_name, scopes, consent_time
		FROM oauth2_consent_history
		WHERE registered_client_id = $1
		ORDER BY consent_time DESC, id DESC
	`, registeredClientID)
}

func (s *Store) ListByClientAndPrincipal(ctx context.Context, registeredClientID, principalName string) ([]consent.ConsentRecord, error) {
	return s.list(ctx, `
		SELECT id, registered_client_id, principal_name, scopes, consent_time
		FROM oauth2_consent_history
		WHERE registered_client_id = $1 AND principal_name = $2
		ORDER BY consent_time DESC, id DESC
	`, registeredClientID, principalName)
}

func (s *Store) CountByPrincipal(ctx context.Context, principalName string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM oauth2_consent_history WHERE principal_name = $1`, principalName)
}

func (s *Store) CountByClient(ctx context.Context, registeredClientID string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM oauth2_consent_history WHERE registered_client_id = $1`, registeredClientID)
}

func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM oauth2_consent_history WHERE consent_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge consent history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge consent history rows affected: %w", err)
	}
	return removed, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]consent.ConsentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query consent history: %w", err)
	}
	defer rows.Close()

	records := []consent.ConsentRecord{}
	for rows.Next() {
		var r consent.ConsentRecord
		if err := rows.Scan(&r.ID, &r.RegisteredClientID, &r.PrincipalName, &r.Scopes, &r.ConsentTime); err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent history: %w", err)
	}
	return records, nil
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count consent history: %w", err)
	}
	return n, nil
}
