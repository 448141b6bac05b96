// Package pgstore persists encoded postings in PostgreSQL. Buffers are stored
// verbatim as bytea next to the codec tag and posting count.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/postgres"
)

const schema = `CREATE TABLE IF NOT EXISTS postings (
    term       TEXT PRIMARY KEY,
    codec      SMALLINT NOT NULL,
    doc_count  INTEGER NOT NULL,
    data       BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertSQL = `INSERT INTO postings (term, codec, doc_count, data, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (term) DO UPDATE
SET codec = EXCLUDED.codec, doc_count = EXCLUDED.doc_count, data = EXCLUDED.data, updated_at = NOW()`

const selectSQL = `SELECT codec, doc_count, data FROM postings WHERE term = $1`

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "pgstore"),
	}
}

// Migrate creates the postings table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating postings table: %w", err)
	}
	return nil
}

// Put inserts or replaces the record for rec.Term.
func (s *Store) Put(ctx context.Context, rec store.Record) error {
	if _, err := s.db.DB.ExecContext(ctx, upsertSQL, rec.Term, int16(rec.Codec), rec.Count, rec.Data); err != nil {
		return fmt.Errorf("storing postings for %q: %w", rec.Term, err)
	}
	return nil
}

// PutBatch writes every record in one transaction; any failure rolls back
// the whole batch.
func (s *Store) PutBatch(ctx context.Context, recs []store.Record) error {
	if len(recs) == 0 {
		return nil
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx, rec.Term, int16(rec.Codec), rec.Count, rec.Data); err != nil {
				return fmt.Errorf("storing postings for %q: %w", rec.Term, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("postings batch stored", "records", len(recs))
	return nil
}

// Get loads the record for term. A missing term is ErrTermNotFound.
func (s *Store) Get(ctx context.Context, term string) (store.Record, error) {
	var (
		tag   int16
		count int
		data  []byte
	)
	err := s.db.DB.QueryRowContext(ctx, selectSQL, term).Scan(&tag, &count, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, apperrors.Newf(apperrors.ErrTermNotFound, "", "term %q", term)
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("loading postings for %q: %w", term, err)
	}
	return store.Record{Term: term, Codec: codec.Type(tag), Count: count, Data: data}, nil
}
