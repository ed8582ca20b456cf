package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/models"
	id "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/sentinel"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/requestcontext"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS registrants (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL,
	net_id          TEXT NOT NULL,
	major           TEXT NOT NULL,
	graduation_year INT NOT NULL,
	is_matched      BOOLEAN NOT NULL DEFAULT FALSE,
	matched_with    UUID NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS registrants_email_key ON registrants (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS registrants_net_id_key ON registrants (net_id);
CREATE INDEX IF NOT EXISTS registrants_unmatched_major_idx ON registrants (major) WHERE is_matched = FALSE;
`

// EnsureSchema creates the registrants table and indexes if absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure registrants schema: %w", err)
	}
	return nil
}

// Postgres persists registrants in PostgreSQL. Pair runs both match writes
// inside one transaction with the rows locked, which gives the
// both-or-neither commit the engine relies on.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registrant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const registrantColumns = `id, name, email, net_id, major, graduation_year, is_matched, matched_with, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, registrant *models.Registrant) error {
	query := `
		INSERT INTO registrants (` + registrantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(registrant.ID),
		registrant.Name,
		registrant.Email,
		registrant.NetID,
		registrant.Major,
		registrant.GraduationYear,
		registrant.IsMatched,
		matchedWithValue(registrant),
		registrant.CreatedAt,
		registrant.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create registrant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registrantColumns+` FROM registrants WHERE id = $1`,
		uuid.UUID(registrantID),
	)
	return scanRegistrant(row, "find registrant by id")
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registrantColumns+` FROM registrants WHERE lower(email) = lower($1)`,
		email,
	)
	return scanRegistrant(row, "find registrant by email")
}

// Update writes the match state and timestamp. Identity fields are immutable
// after creation, so they are deliberately not part of the statement.
func (s *Postgres) Update(ctx context.Context, registrant *models.Registrant) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registrants
		SET is_matched = $2, matched_with = $3, updated_at = $4
		WHERE id = $1
	`,
		uuid.UUID(registrant.ID),
		registrant.IsMatched,
		matchedWithValue(registrant),
		registrant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registrant: %w", err)
	}
	return requireOneRow(result, sentinel.ErrNotFound)
}

func (s *Postgres) FindCandidate(ctx context.Context, exclude id.RegistrantID, major string) (*models.Registrant, error) {
	// Same-major candidates sort first; beyond that the order is whatever the
	// planner produces, which is the documented unspecified tie-break.
	row := s.db.QueryRowContext(ctx, `
		SELECT `+registrantColumns+`
		FROM registrants
		WHERE is_matched = FALSE AND id <> $1
		ORDER BY (major = $2) DESC
		LIMIT 1
	`, uuid.UUID(exclude), major)
	return scanRegistrant(row, "find candidate")
}

func (s *Postgres) Pair(ctx context.Context, a, b id.RegistrantID) error {
	if a == b {
		return sentinel.ErrConflict
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pair tx: %w", err)
	}
	defer tx.Rollback()

	// Lock both rows before checking state so two concurrent commits against
	// the same candidate serialize instead of both reading is_matched=FALSE.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, is_matched FROM registrants
		WHERE id = ANY($1)
		FOR UPDATE
	`, pq.Array([]uuid.UUID{uuid.UUID(a), uuid.UUID(b)}))
	if err != nil {
		return fmt.Errorf("lock pair rows: %w", err)
	}

	locked := 0
	for rows.Next() {
		var (
			rowID   uuid.UUID
			matched bool
		)
		if err := rows.Scan(&rowID, &matched); err != nil {
			rows.Close()
			return fmt.Errorf("scan pair row: %w", err)
		}
		if matched {
			rows.Close()
			return sentinel.ErrConflict
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate pair rows: %w", err)
	}
	if locked != 2 {
		return sentinel.ErrNotFound
	}

	now := requestcontext.Now(ctx)
	for _, pair := range [][2]uuid.UUID{
		{uuid.UUID(a), uuid.UUID(b)},
		{uuid.UUID(b), uuid.UUID(a)},
	} {
		result, err := tx.ExecContext(ctx, `
			UPDATE registrants
			SET is_matched = TRUE, matched_with = $2, updated_at = $3
			WHERE id = $1 AND is_matched = FALSE
		`, pair[0], pair[1], now)
		if err != nil {
			return fmt.Errorf("commit pair side: %w", err)
		}
		if err := requireOneRow(result, sentinel.ErrConflict); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pair tx: %w", err)
	}
	return nil
}

func (s *Postgres) Unpair(ctx context.Context, registrantID id.RegistrantID, expectedPartner *id.RegistrantID) error {
	var expected any
	if expectedPartner != nil {
		expected = uuid.UUID(*expectedPartner)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE registrants
		SET is_matched = FALSE, matched_with = NULL, updated_at = $3
		WHERE id = $1 AND matched_with IS NOT DISTINCT FROM $2
	`, uuid.UUID(registrantID), expected, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("unpair registrant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows is ambiguous: the record is gone, or its partner reference
	// moved on since the caller read it.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrants WHERE id = $1)`,
		uuid.UUID(registrantID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check registrant exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *Postgres) Delete(ctx context.Context, registrantID id.RegistrantID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM registrants WHERE id = $1`,
		uuid.UUID(registrantID),
	)
	if err != nil {
		return fmt.Errorf("delete registrant: %w", err)
	}
	return requireOneRow(result, sentinel.ErrNotFound)
}

func (s *Postgres) ListMatched(ctx context.Context) ([]*models.Registrant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+registrantColumns+` FROM registrants WHERE is_matched = TRUE`,
	)
	if err != nil {
		return nil, fmt.Errorf("list matched registrants: %w", err)
	}
	defer rows.Close()

	var out []*models.Registrant
	for rows.Next() {
		r, err := scanRegistrant(rows, "list matched registrants")
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matched registrants: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistrant(row rowScanner, op string) (*models.Registrant, error) {
	var (
		r           models.Registrant
		registrant  uuid.UUID
		matchedWith uuid.NullUUID
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(
		&registrant,
		&r.Name,
		&r.Email,
		&r.NetID,
		&r.Major,
		&r.GraduationYear,
		&r.IsMatched,
		&matchedWith,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.ID = id.RegistrantID(registrant)
	if matchedWith.Valid {
		partner := id.RegistrantID(matchedWith.UUID)
		r.MatchedWith = &partner
	}
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	return &r, nil
}

func matchedWithValue(registrant *models.Registrant) uuid.NullUUID {
	if registrant.MatchedWith == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*registrant.MatchedWith), Valid: true}
}

func requireOneRow(result sql.Result, miss error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return miss
	}
	return nil
}
