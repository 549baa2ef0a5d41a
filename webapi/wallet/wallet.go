// Package wallet exposes wallet reads over HTTP.
package wallet

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/solventhq/walletcore/pkg/config"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/middleware"
	"github.com/solventhq/walletcore/pkg/money"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
	"github.com/solventhq/walletcore/webapi/common"
)

// Routes registers the wallet endpoints.
//
// Routes:
//   - GET /wallet         : Fetch (creating on first reference) the caller's wallet.
//   - GET /wallet/balance : Read one bucket balance of the caller's wallet.
func Routes(app *fiber.App, svc *walletsvc.Service, cfg *config.App) {
	app.Get("/wallet", middleware.JwtProtected(cfg.Jwt), GetWallet(svc))
	app.Get("/wallet/balance", middleware.JwtProtected(cfg.Jwt), GetBalance(svc))
}

// GetWallet returns the handler for fetching the caller's wallet for a
// currency, creating it with zero balances on first reference.
func GetWallet(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		w, err := svc.GetOrCreate(c.UserContext(), walletsvc.GetOrCreateParams{
			TenantID: tenantID,
			UserID:   userID,
			Currency: money.Code(c.Query("currency")),
		})
		if err != nil {
			log.Errorf("Failed to fetch wallet: %v", err)
			return common.DomainErrorJSON(c, "Failed to fetch wallet", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Wallet fetched", toWalletDTO(w))
	}
}

// GetBalance returns the handler for reading one bucket balance. The bucket
// defaults to real.
func GetBalance(svc *walletsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		bucket := walletdomain.BalanceReal
		if q := c.Query("bucket"); q != "" {
			bucket = walletdomain.BalanceType(q)
			if !bucket.IsValid() {
				return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
					"Invalid bucket", "bucket must be one of real, bonus, locked")
			}
		}

		w, err := svc.GetOrCreate(c.UserContext(), walletsvc.GetOrCreateParams{
			TenantID: tenantID,
			UserID:   userID,
			Currency: money.Code(c.Query("currency")),
		})
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch wallet", err)
		}
		amount, err := svc.Balance(c.UserContext(), w.ID, bucket)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to read balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched",
			toBalanceDTO(w, bucket, amount))
	}
}
