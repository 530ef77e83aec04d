package storage

import (
	"context"
	"errors"

	"swapPilot/internal/model"
)

// Storage persists the bot's transaction ledger.
type Storage interface {
	PutTransactions(ctx context.Context, records []model.TxRecord) error
	PutBalanceSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) error
}

// Multi writes to every backend and joins their errors.
type Multi []Storage

func (m Multi) PutTransactions(ctx context.Context, records []model.TxRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.PutTransactions(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PutBalanceSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.PutBalanceSnapshots(ctx, snapshots); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
