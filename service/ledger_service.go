package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shubhamku044/cross-chain-rebase-token/accrual"
	"github.com/shubhamku044/cross-chain-rebase-token/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, clock Clock) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// settleAccount realizes interest accrued since the account's last
// settlement into principal and resets the settlement clock. It must run
// before any operation that observes or mutates the account, inside the
// same transaction, so the interest is realized under the rate that was
// frozen when the accrual happened.
func settleAccount(ctx context.Context, uow UnitOfWork, account *models.Account, now time.Time) error {
	live := accrual.Balance(account.Principal, account.Rate, account.LastSettledAt, now)
	delta := new(big.Int).Sub(live, account.Principal)

	if delta.Sign() > 0 {
		if err := uow.Accounts().AddPrincipal(ctx, account.Address, delta); err != nil {
			return fmt.Errorf("failed to realize interest: %w", err)
		}

		entry := &models.LedgerEntry{
			Address:         account.Address,
			PrincipalBefore: account.Principal,
			PrincipalAfter:  live,
			ChangeAmount:    delta,
			EntryType:       models.EntryTypeInterest,
			Metadata: map[string]any{
				"rate":            account.Rate.String(),
				"elapsed_seconds": now.Unix() - account.LastSettledAt.Unix(),
			},
		}
		if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
			return fmt.Errorf("failed to record interest entry: %w", err)
		}

		account.Principal = live
	}

	// The settlement clock resets even when nothing accrued, so settling
	// twice at the same instant is idempotent.
	if err := uow.Accounts().SetSettledAt(ctx, account.Address, now); err != nil {
		return fmt.Errorf("failed to update settlement time: %w", err)
	}
	account.LastSettledAt = now

	return nil
}

func (s *ledgerService) Mint(ctx context.Context, caller, to string, amount, rate *big.Int, reference *uuid.UUID) (*models.Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("mint amount must be positive")
	}
	if accrual.IsMax(amount) {
		return nil, fmt.Errorf("mint amount cannot be the max sentinel")
	}
	if rate != nil && rate.Sign() < 0 {
		return nil, fmt.Errorf("rate cannot be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	hasRole, err := uow.Roles().HasRole(ctx, caller, models.RoleMintAndBurn)
	if err != nil {
		return nil, fmt.Errorf("failed to check caller role: %w", err)
	}
	if !hasRole {
		return nil, &UnauthorizedError{Address: caller, Action: "mint"}
	}

	// A nil rate means "freeze the current global rate", the path taken
	// by the vault on deposits.
	if rate == nil {
		if rate, err = uow.Rates().GetGlobalRate(ctx); err != nil {
			return nil, fmt.Errorf("failed to get global rate: %w", err)
		}
	}

	now := s.clock.Now()

	account, err := uow.Accounts().GetForUpdate(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("failed to lock recipient account: %w", err)
	}
	if account == nil {
		// First touch: the row is created already settled at now
		if account, err = uow.Accounts().Create(ctx, to, rate, now); err != nil {
			return nil, fmt.Errorf("failed to create recipient account: %w", err)
		}
	} else {
		// Settle under the previous rate, then freeze the new one. The
		// order matters: accrual up to this instant belongs to the old
		// rate.
		if err := settleAccount(ctx, uow, account, now); err != nil {
			return nil, err
		}
		if err := uow.Accounts().SetRate(ctx, to, rate); err != nil {
			return nil, fmt.Errorf("failed to assign rate: %w", err)
		}
		account.Rate = rate
	}

	if err := uow.Accounts().AddPrincipal(ctx, to, amount); err != nil {
		return nil, fmt.Errorf("failed to add minted principal: %w", err)
	}

	after := new(big.Int).Add(account.Principal, amount)
	entry := &models.LedgerEntry{
		Address:         to,
		PrincipalBefore: account.Principal,
		PrincipalAfter:  after,
		ChangeAmount:    amount,
		EntryType:       models.EntryTypeMint,
		Metadata: map[string]any{
			"caller": caller,
			"rate":   rate.String(),
		},
		Reference: reference,
	}
	if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
		return nil, err
	}
	account.Principal = after

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

func (s *ledgerService) Burn(ctx context.Context, caller, from string, amount *big.Int, reference *uuid.UUID) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("burn amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	hasRole, err := uow.Roles().HasRole(ctx, caller, models.RoleMintAndBurn)
	if err != nil {
		return nil, fmt.Errorf("failed to check caller role: %w", err)
	}
	if !hasRole {
		return nil, &UnauthorizedError{Address: caller, Action: "burn"}
	}

	now := s.clock.Now()

	account, err := uow.Accounts().GetForUpdate(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		if accrual.IsMax(amount) {
			// Untouched account: the full live balance is zero
			return big.NewInt(0), nil
		}
		return nil, &InsufficientPrincipalError{Address: from, Have: big.NewInt(0), Need: amount}
	}

	if err := settleAccount(ctx, uow, account, now); err != nil {
		return nil, err
	}

	// After settlement the live balance equals the stored principal, so
	// the max sentinel resolves to the principal.
	resolved := amount
	if accrual.IsMax(amount) {
		resolved = new(big.Int).Set(account.Principal)
	}

	if resolved.Cmp(account.Principal) > 0 {
		return nil, &InsufficientPrincipalError{Address: from, Have: account.Principal, Need: resolved}
	}

	if resolved.Sign() > 0 {
		if err := uow.Accounts().DeductPrincipal(ctx, from, resolved); err != nil {
			return nil, fmt.Errorf("failed to deduct burned principal: %w", err)
		}

		after := new(big.Int).Sub(account.Principal, resolved)
		entry := &models.LedgerEntry{
			Address:         from,
			PrincipalBefore: account.Principal,
			PrincipalAfter:  after,
			ChangeAmount:    new(big.Int).Neg(resolved),
			EntryType:       models.EntryTypeBurn,
			Metadata: map[string]any{
				"caller": caller,
			},
			Reference: reference,
		}
		if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return resolved, nil
}

func (s *ledgerService) Transfer(ctx context.Context, sender, recipient string, amount *big.Int) (*models.TransferResult, error) {
	return s.runTransfer(ctx, "", sender, recipient, amount)
}

func (s *ledgerService) TransferFrom(ctx context.Context, spender, sender, recipient string, amount *big.Int) (*models.TransferResult, error) {
	if spender == "" {
		return nil, fmt.Errorf("spender is required")
	}
	return s.runTransfer(ctx, spender, sender, recipient, amount)
}

// runTransfer implements both transfer variants. A non-empty spender
// distinct from the sender makes this a third-party transfer subject to
// the sender's allowance.
func (s *ledgerService) runTransfer(ctx context.Context, spender, sender, recipient string, amount *big.Int) (*models.TransferResult, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	if sender == recipient {
		return nil, fmt.Errorf("cannot transfer to yourself")
	}
	if sender == "" || recipient == "" {
		return nil, fmt.Errorf("sender and recipient are required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()

	// Lock both rows in address order so concurrent transfers between
	// the same pair cannot deadlock.
	locked := make(map[string]*models.Account, 2)
	addresses := []string{sender, recipient}
	sort.Strings(addresses)
	for _, address := range addresses {
		account, err := uow.Accounts().GetForUpdate(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to lock account %s: %w", address, err)
		}
		locked[address] = account
	}

	senderAccount := locked[sender]
	recipientAccount := locked[recipient]

	if senderAccount == nil {
		need := amount
		if accrual.IsMax(amount) {
			need = big.NewInt(0)
		}
		return nil, &InsufficientPrincipalError{Address: sender, Have: big.NewInt(0), Need: need}
	}

	// Both sides settle before the move so pre-transfer interest is
	// realized under each side's own frozen rate.
	if err := settleAccount(ctx, uow, senderAccount, now); err != nil {
		return nil, err
	}
	if recipientAccount != nil {
		if err := settleAccount(ctx, uow, recipientAccount, now); err != nil {
			return nil, err
		}
	}

	resolved := amount
	if accrual.IsMax(amount) {
		resolved = new(big.Int).Set(senderAccount.Principal)
	}

	if senderAccount.Principal.Cmp(resolved) < 0 {
		return nil, &InsufficientPrincipalError{Address: sender, Have: senderAccount.Principal, Need: resolved}
	}

	if spender != "" && spender != sender {
		allowance, err := uow.Allowances().Get(ctx, sender, spender)
		if err != nil {
			return nil, fmt.Errorf("failed to get allowance: %w", err)
		}
		// A max-sentinel allowance is unlimited and never decremented
		if !accrual.IsMax(allowance) {
			if allowance.Cmp(resolved) < 0 {
				return nil, &InsufficientAllowanceError{Owner: sender, Spender: spender, Have: allowance, Need: resolved}
			}
			remaining := new(big.Int).Sub(allowance, resolved)
			if err := uow.Allowances().Set(ctx, sender, spender, remaining); err != nil {
				return nil, fmt.Errorf("failed to decrement allowance: %w", err)
			}
		}
	}

	// Rate inheritance: a recipient with zero settled principal is at its
	// effective first touch and inherits the sender's frozen rate, not
	// the global rate.
	rateInherited := false
	if recipientAccount == nil {
		var err error
		if recipientAccount, err = uow.Accounts().Create(ctx, recipient, senderAccount.Rate, now); err != nil {
			return nil, fmt.Errorf("failed to create recipient account: %w", err)
		}
		rateInherited = true
	} else if recipientAccount.Principal.Sign() == 0 {
		if err := uow.Accounts().SetRate(ctx, recipient, senderAccount.Rate); err != nil {
			return nil, fmt.Errorf("failed to inherit rate: %w", err)
		}
		recipientAccount.Rate = senderAccount.Rate
		rateInherited = true
	}

	newSenderPrincipal := new(big.Int).Sub(senderAccount.Principal, resolved)
	newRecipientPrincipal := new(big.Int).Add(recipientAccount.Principal, resolved)

	if resolved.Sign() > 0 {
		if err := uow.Accounts().DeductPrincipal(ctx, sender, resolved); err != nil {
			return nil, fmt.Errorf("failed to deduct transfer amount: %w", err)
		}
		if err := uow.Accounts().AddPrincipal(ctx, recipient, resolved); err != nil {
			return nil, fmt.Errorf("failed to add transfer amount: %w", err)
		}

		outMetadata := map[string]any{
			"recipient": recipient,
			"amount":    resolved.String(),
		}
		inMetadata := map[string]any{
			"sender": sender,
			"amount": resolved.String(),
		}
		if spender != "" && spender != sender {
			outMetadata["spender"] = spender
			inMetadata["spender"] = spender
		}

		outEntry := &models.LedgerEntry{
			Address:         sender,
			PrincipalBefore: senderAccount.Principal,
			PrincipalAfter:  newSenderPrincipal,
			ChangeAmount:    new(big.Int).Neg(resolved),
			EntryType:       models.EntryTypeTransferOut,
			Metadata:        outMetadata,
		}
		if err := RecordPrincipalChange(ctx, uow, outEntry); err != nil {
			return nil, err
		}

		inEntry := &models.LedgerEntry{
			Address:         recipient,
			PrincipalBefore: recipientAccount.Principal,
			PrincipalAfter:  newRecipientPrincipal,
			ChangeAmount:    resolved,
			EntryType:       models.EntryTypeTransferIn,
			Metadata:        inMetadata,
		}
		if err := RecordPrincipalChange(ctx, uow, inEntry); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.TransferResult{
		Amount:             resolved,
		SenderPrincipal:    newSenderPrincipal,
		RecipientPrincipal: newRecipientPrincipal,
		RateInherited:      rateInherited,
	}, nil
}

func (s *ledgerService) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("owner and spender are required")
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("allowance cannot be negative")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Allowances().Set(ctx, owner, spender, amount); err != nil {
		return fmt.Errorf("failed to set allowance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *ledgerService) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Allowances().Get(ctx, owner, spender)
}

// BalanceOf returns the live computed balance. Read-only: nothing is
// settled and no state changes.
func (s *ledgerService) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return big.NewInt(0), nil
	}

	return accrual.Balance(account.Principal, account.Rate, account.LastSettledAt, s.clock.Now()), nil
}

// PrincipalBalanceOf returns the settled principal without accrual, for
// collaborators such as the bridge that move exact realized amounts.
func (s *ledgerService) PrincipalBalanceOf(ctx context.Context, address string) (*big.Int, error) {
	account, err := s.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return big.NewInt(0), nil
	}

	return account.Principal, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Accounts().GetByAddress(ctx, address)
}

func (s *ledgerService) EntriesFor(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LedgerEntries().GetByAddress(ctx, address, limit)
}
