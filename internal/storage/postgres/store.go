package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapPilot/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for the transaction ledger.
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
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the ledger tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutTransactions inserts confirmed transactions. Replays of the same hash are ignored.
func (s *Store) PutTransactions(ctx context.Context, records []model.TxRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO swap_transactions (
				chain_id, tx_hash, kind, account, token_in, token_out, amount_in,
				amount_out_minimum, quoted_amount_out, block_number, gas_used,
				effective_gas_price, gas_cost_wei, status, confirmed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (chain_id, tx_hash) DO NOTHING
		`,
			int64(r.ChainID),
			r.TxHash,
			string(r.Kind),
			r.Account,
			r.TokenIn,
			nullable(r.TokenOut),
			numeric(r.AmountIn),
			nullable(r.AmountOutMinimum),
			nullable(r.QuotedAmountOut),
			int64(r.BlockNumber),
			int64(r.GasUsed),
			numeric(r.EffectiveGasPrice),
			numeric(r.GasCostWei),
			int16(r.Status),
			r.ConfirmedAt,
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutBalanceSnapshots inserts balance readings.
func (s *Store) PutBalanceSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO balance_snapshots (chain_id, account, weth, usdc, taken_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (chain_id, account, taken_at) DO NOTHING
		`,
			int64(snap.ChainID),
			snap.Account,
			numeric(snap.WETH),
			numeric(snap.USDC),
			snap.TakenAt,
		)
	}
	return s.sendBatch(ctx, batch, len(snapshots))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// CountTransactions returns the number of ledger rows for an account.
func (s *Store) CountTransactions(ctx context.Context, account string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM swap_transactions WHERE account=$1`, account).Scan(&n)
	return n, err
}

// LoadState returns the stored unix timestamp for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_ts FROM swapbot_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts the unix timestamp for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO swapbot_state (name, last_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_ts = EXCLUDED.last_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

// numeric passes decimal strings as text so that Postgres casts them.
func numeric(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
