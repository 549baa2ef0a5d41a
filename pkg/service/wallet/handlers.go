package wallet

import (
	"context"

	"github.com/solventhq/walletcore/pkg/domain/events"
)

// HandleBalancesChanged is the event-bus handler that drops cached balances
// after a committed transfer. Registered on WalletBalancesChanged.
func (s *Service) HandleBalancesChanged(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.WalletBalancesChanged)
	if !ok {
		return nil
	}
	s.InvalidateBalances(ctx, evt.WalletIDs...)
	return nil
}
