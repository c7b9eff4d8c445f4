package service

import (
	"context"
	"fmt"

	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

// RecordPrincipalChange records a journal entry and emits the matching
// event. This is the single entry point for all principal changes,
// including interest realized by settlement.
func RecordPrincipalChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerEntries().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Emitted only after the transaction commits
	uow.EventBus().Publish(events.PrincipalChangedEvent{
		Address:         entry.Address,
		PrincipalBefore: entry.PrincipalBefore,
		PrincipalAfter:  entry.PrincipalAfter,
		ChangeAmount:    entry.ChangeAmount,
		EntryType:       entry.EntryType,
	})

	return nil
}
