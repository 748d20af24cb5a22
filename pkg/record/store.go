// Package record persists completed transfers and renders user-facing
// receipts for them.
package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/lpbridge/middleware/pkg/transfer"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("transfer record not found")

// Store reads and writes transfer records.
type Store struct {
	db *bun.DB
}

// NewStore creates a record store over an existing connection.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Save inserts a completed transfer record.
func (s *Store) Save(ctx context.Context, rec *transfer.Record) error {
	_, err := s.db.NewInsert().
		Model(toDao(rec)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// Get fetches one record by id.
func (s *Store) Get(ctx context.Context, id string) (*transfer.Record, error) {
	dao := new(TransferRecordDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transfer record: %w", err)
	}
	return fromDao(dao)
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*transfer.Record, error) {
	var daos []*TransferRecordDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("completed_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transfer records: %w", err)
	}

	records := make([]*transfer.Record, 0, len(daos))
	for _, dao := range daos {
		rec, err := fromDao(dao)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", dao.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
