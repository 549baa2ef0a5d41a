package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/domain"
	"github.com/solventhq/walletcore/pkg/domain/events"
	"github.com/solventhq/walletcore/pkg/domain/ledger"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	"github.com/solventhq/walletcore/pkg/opstate"
	"github.com/solventhq/walletcore/pkg/repository"
)

// Approve resolves a pending transfer created with the pending approval
// mode: it applies the wallet balance changes deferred at creation time,
// flips both ledger entries to completed, and the transfer to approved.
// Fails if the transfer is not currently pending.
func (s *Service) Approve(ctx context.Context, transferID uuid.UUID, opts Opts) (*transferdomain.Transfer, error) {
	logger := s.logger.With("transferID", transferID, "op", "approve")

	var t *transferdomain.Transfer
	run := func(uow repository.UnitOfWork) error {
		var err error
		t, err = s.resolvePending(ctx, uow, transferID, transferdomain.StatusApproved)
		return err
	}

	var err error
	if opts.Session != nil {
		err = run(opts.Session)
	} else {
		opID := "approve:" + transferID.String()
		s.trackOpStart(ctx, opID)
		err = s.uow.Do(ctx, run)
		if err != nil {
			s.trackOpStatus(ctx, opID, opstate.StatusFailed, err.Error())
		} else {
			s.trackOpStatus(ctx, opID, opstate.StatusCompleted, "")
		}
	}
	if err != nil {
		logger.Error("approve failed", "error", err)
		return nil, err
	}

	if opts.Session == nil && s.bus != nil {
		evt := events.TransferApproved{
			TransferID:   t.ID,
			TenantID:     t.TenantID,
			FromUserID:   t.FromUserID,
			ToUserID:     t.ToUserID,
			FromWalletID: t.Meta.FromWalletID,
			ToWalletID:   t.Meta.ToWalletID,
			Amount:       t.Amount,
			FeeAmount:    t.Meta.FeeAmount,
			Currency:     t.Currency,
		}
		if perr := s.bus.Publish(ctx, evt); perr != nil {
			logger.Warn("event publish failed", "event", evt.Type(), "error", perr)
		}
		s.publishBalancesChanged(ctx, t)
	}
	logger.Info("transfer approved")
	return t, nil
}

// Decline resolves a pending transfer by flipping both ledger entries and
// the transfer to failed with the given reason. Wallet balances are never
// touched: none were applied for a pending transfer.
func (s *Service) Decline(
	ctx context.Context,
	transferID uuid.UUID,
	reason string,
	opts Opts,
) (*transferdomain.Transfer, error) {
	logger := s.logger.With("transferID", transferID, "op", "decline")

	var t *transferdomain.Transfer
	run := func(uow repository.UnitOfWork) error {
		transferRepo, err := uow.TransferRepository()
		if err != nil {
			return err
		}
		ledgerRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		t, err = transferRepo.Get(ctx, transferID)
		if err != nil {
			return err
		}
		if err := t.TransitionTo(transferdomain.StatusFailed); err != nil {
			return err
		}
		t.DeclineReason = reason

		entries, err := ledgerRepo.ListByTransfer(ctx, transferID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := ledgerRepo.UpdateStatus(ctx, entry.ID, ledger.StatusFailed); err != nil {
				return err
			}
		}
		return transferRepo.UpdateStatus(ctx, transferID, transferdomain.StatusFailed, reason)
	}

	var err error
	if opts.Session != nil {
		err = run(opts.Session)
	} else {
		err = s.uow.Do(ctx, run)
	}
	if err != nil {
		logger.Error("decline failed", "error", err)
		return nil, err
	}

	if opts.Session == nil && s.bus != nil {
		evt := events.TransferDeclined{TransferID: t.ID, TenantID: t.TenantID, Reason: reason}
		if perr := s.bus.Publish(ctx, evt); perr != nil {
			logger.Warn("event publish failed", "event", evt.Type(), "error", perr)
		}
	}
	logger.Info("transfer declined", "reason", reason)
	return t, nil
}

// resolvePending loads a pending transfer, applies its deferred wallet
// changes and settles its ledger entries.
func (s *Service) resolvePending(
	ctx context.Context,
	uow repository.UnitOfWork,
	transferID uuid.UUID,
	target transferdomain.Status,
) (*transferdomain.Transfer, error) {
	transferRepo, err := uow.TransferRepository()
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	walletRepo, err := uow.WalletRepository()
	if err != nil {
		return nil, err
	}

	t, err := transferRepo.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := t.TransitionTo(target); err != nil {
		return nil, err
	}
	if t.ApprovalMode != transferdomain.ApprovalPending {
		return nil, fmt.Errorf("%w: transfer %s was not created in pending mode",
			transferdomain.ErrInvalidStatusTransition, transferID)
	}

	// Re-read the source wallet: its balance may have moved since the
	// reservation, and the version guard needs the current value.
	fromWallet, err := walletRepo.Get(ctx, t.Meta.FromWalletID)
	if err != nil {
		return nil, err
	}
	toWallet := fromWallet
	if t.Meta.ToWalletID != t.Meta.FromWalletID {
		if toWallet, err = walletRepo.Get(ctx, t.Meta.ToWalletID); err != nil {
			return nil, err
		}
	}
	if !fromWallet.IsActive() || !toWallet.IsActive() {
		return nil, domain.ErrWalletInactive
	}
	if err := fromWallet.CanDebit(t.Meta.FromBalanceType, t.Amount); err != nil {
		return nil, err
	}

	p := CreateParams{
		FromBalanceType: t.Meta.FromBalanceType,
		ToBalanceType:   t.Meta.ToBalanceType,
	}
	split := transferdomain.SplitFee(t.Amount, t.Meta.FeeAmount)
	if err := s.applyWalletChanges(ctx, walletRepo, p, split, fromWallet, toWallet); err != nil {
		return nil, err
	}

	for _, id := range []uuid.UUID{t.Meta.DebitTxID, t.Meta.CreditTxID} {
		if err := ledgerRepo.UpdateStatus(ctx, id, ledger.StatusCompleted); err != nil {
			return nil, err
		}
	}
	if err := transferRepo.UpdateStatus(ctx, transferID, target, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// trackOpStart mirrors trackStart for non-create operations keyed by a
// prefixed id.
func (s *Service) trackOpStart(ctx context.Context, opID string) {
	if s.opStates == nil {
		return
	}
	now := time.Now().UTC()
	if err := s.opStates.SetState(ctx, opID, opstate.State{
		ID:            opID,
		Status:        opstate.StatusInProgress,
		StartedAt:     now,
		LastHeartbeat: now,
	}, s.inProgressTTL); err != nil {
		s.logger.Warn("operation state set failed", "opID", opID, "error", err)
	}
}

func (s *Service) trackOpStatus(ctx context.Context, opID string, status opstate.Status, opErr string) {
	if s.opStates == nil {
		return
	}
	if err := s.opStates.UpdateStatus(ctx, opID, status, opErr); err != nil {
		s.logger.Warn("operation state update failed", "opID", opID, "error", err)
	}
}
