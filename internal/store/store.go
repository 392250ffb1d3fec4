// Package store mirrors loaded datasets into PostgreSQL and journals
// treatment edits.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/caredata/internal/config"
	"github.com/JonMunkholm/caredata/internal/core"
)

//go:embed schema.sql
var schema string

// mirrored tables in the order they are truncated and copied.
var (
	hospitalColumns  = []string{"name", "identity"}
	providerColumns  = []string{"name", "number", "hospital", "doctor"}
	patientColumns   = []string{"medical_reference_number", "name"}
	treatmentColumns = []string{"position", "details", "hospital", "provider", "patient", "discharged_at"}
	rejectionColumns = []string{"kind", "line", "reason"}
)

// countable lists the tables CountRows accepts; table names cannot be bound
// as query parameters.
var countable = map[string]bool{
	"hospitals":       true,
	"providers":       true,
	"patients":        true,
	"treatments":      true,
	"rejections":      true,
	"snapshots":       true,
	"treatment_edits": true,
}

// Store implements core.Mirror and core.Journal, and can read back and
// prune the journal.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ core.Mirror        = (*Store)(nil)
	_ core.Journal       = (*Store)(nil)
	_ core.EditHistory   = (*Store)(nil)
	_ core.JournalPruner = (*Store)(nil)
)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens and pings a pool sized from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Migrate creates the mirror tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SyncSnapshot replaces the mirrored tables with ds in one transaction.
func (s *Store) SyncSnapshot(ctx context.Context, ds *core.Dataset) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE hospitals, providers, patients, treatments, rejections"); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	copies := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"hospitals", hospitalColumns, hospitalRows(ds.Hospitals)},
		{"providers", providerColumns, providerRows(ds.Providers)},
		{"patients", patientColumns, patientRows(ds.Patients)},
		{"treatments", treatmentColumns, treatmentRows(ds.Treatments)},
		{"rejections", rejectionColumns, rejectionRows(ds.Rejected)},
	}
	for _, c := range copies {
		if len(c.rows) == 0 {
			continue
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows)); err != nil {
			return fmt.Errorf("copy %s: %w", c.table, err)
		}
	}

	loadedAt := ds.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO snapshots (id, loaded_at, hospitals, providers, patients, treatments, rejected)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgUUID(uuid.New()), pgtype.Timestamptz{Time: loadedAt, Valid: true},
		len(ds.Hospitals), len(ds.Providers), len(ds.Patients), len(ds.Treatments), len(ds.Rejected),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecordEdit appends outcome to the edit journal.
func (s *Store) RecordEdit(ctx context.Context, outcome core.EditOutcome) error {
	id, err := uuid.Parse(outcome.ID)
	if err != nil {
		return fmt.Errorf("edit id %q: %w", outcome.ID, err)
	}

	t := outcome.Treatment
	_, err = s.pool.Exec(ctx,
		`INSERT INTO treatment_edits
		   (id, action, position, applied, reason, count,
		    details, hospital, provider, patient, discharged_at,
		    ip_address, user_agent, edited_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		pgUUID(id), string(outcome.Action), outcome.Index, outcome.Applied, toPgText(outcome.Reason), outcome.Count,
		t.Details, t.Hospital, t.Provider, t.Patient, toPgTimestamp(t.DischargedAt),
		toPgText(outcome.IPAddress), toPgText(outcome.UserAgent),
		pgtype.Timestamptz{Time: outcome.At, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert edit: %w", err)
	}
	return nil
}

// RecentEdits returns up to limit journal entries, newest first.
func (s *Store) RecentEdits(ctx context.Context, limit int) ([]core.EditOutcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, action, position, applied, reason, count,
		        details, hospital, provider, patient, discharged_at, edited_at
		   FROM treatment_edits
		  ORDER BY edited_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	defer rows.Close()

	var edits []core.EditOutcome
	for rows.Next() {
		var (
			id         pgtype.UUID
			action     string
			reason     pgtype.Text
			discharged pgtype.Timestamp
			editedAt   pgtype.Timestamptz
			o          core.EditOutcome
		)
		if err := rows.Scan(&id, &action, &o.Index, &o.Applied, &reason, &o.Count,
			&o.Treatment.Details, &o.Treatment.Hospital, &o.Treatment.Provider, &o.Treatment.Patient,
			&discharged, &editedAt); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		o.ID = uuid.UUID(id.Bytes).String()
		o.Action = core.EditAction(action)
		o.Reason = reason.String
		o.Treatment.DischargedAt = fromPgTimestamp(discharged)
		o.At = editedAt.Time
		edits = append(edits, o)
	}
	return edits, rows.Err()
}

// PruneEdits deletes journal entries edited before the cutoff.
func (s *Store) PruneEdits(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM treatment_edits WHERE edited_at < $1`,
		pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune edits: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneSnapshots deletes snapshot rows loaded before the cutoff.
func (s *Store) PruneSnapshots(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM snapshots WHERE loaded_at < $1`,
		pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountRows returns the number of rows in one of the mirror tables.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if !countable[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func hospitalRows(hs []core.Hospital) [][]any {
	rows := make([][]any, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []any{h.Name, h.Identity})
	}
	return rows
}

func providerRows(ps []core.Provider) [][]any {
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []any{p.Name, p.Number, p.Hospital, p.Doctor})
	}
	return rows
}

func patientRows(ps []core.Patient) [][]any {
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []any{p.MedicalReferenceNumber, p.Name})
	}
	return rows
}

func treatmentRows(ts []core.Treatment) [][]any {
	rows := make([][]any, 0, len(ts))
	for i, t := range ts {
		rows = append(rows, []any{int32(i), t.Details, t.Hospital, t.Provider, t.Patient, toPgTimestamp(t.DischargedAt)})
	}
	return rows
}

func rejectionRows(rs []core.Rejection) [][]any {
	rows := make([][]any, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []any{string(r.Kind), int32(r.Line), r.Reason()})
	}
	return rows
}
