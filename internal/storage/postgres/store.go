package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
)

// maxBatchRows caps how many statements a single pgx batch carries.
const maxBatchRows = 1000

// Store provides Postgres persistence for pairs and engine events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPairs inserts or updates pair metadata.
func (s *Store) UpsertPairs(ctx context.Context, pairs []model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	spans, err := splitSpans(len(pairs), maxBatchRows)
	if err != nil {
		return err
	}
	for _, sp := range spans {
		batch := &pgx.Batch{}
		for _, pair := range pairs[sp.From : sp.To+1] {
			batch.Queue(`
				INSERT INTO pairs (
					pair_id, token0, token1, pair_index, created_at_ts, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, now(), now())
				ON CONFLICT (pair_id)
				DO UPDATE SET
					token0 = EXCLUDED.token0,
					token1 = EXCLUDED.token1,
					pair_index = EXCLUDED.pair_index,
					updated_at = now()
			`,
				pair.PairID,
				pair.Token0,
				pair.Token1,
				int64(pair.PairIndex),
				int64(pair.CreatedAt),
			)
		}
		if err := s.sendBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertEvents appends engine event records; the stream is append-only and
// keyed by sequence number, so replays are idempotent.
func (s *Store) InsertEvents(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	spans, err := splitSpans(len(records), maxBatchRows)
	if err != nil {
		return err
	}
	for _, sp := range spans {
		batch := &pgx.Batch{}
		for _, record := range records[sp.From : sp.To+1] {
			batch.Queue(`
				INSERT INTO engine_events (
					seq, event_ts, source, contract, event_name, data, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, now())
				ON CONFLICT (seq) DO NOTHING
			`,
				int64(record.Seq),
				int64(record.Timestamp),
				record.Source,
				record.Contract,
				record.EventName,
				[]byte(record.Data),
			)
		}
		if err := s.sendBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_seq FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts last_processed_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, last_processed_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_seq = EXCLUDED.last_processed_seq, updated_at = now()
	`, name, seq)
	return err
}
