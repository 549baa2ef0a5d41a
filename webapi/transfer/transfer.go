// Package transfer exposes the transfer orchestrator over HTTP.
package transfer

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/solventhq/walletcore/pkg/config"
	transferdomain "github.com/solventhq/walletcore/pkg/domain/transfer"
	walletdomain "github.com/solventhq/walletcore/pkg/domain/wallet"
	"github.com/solventhq/walletcore/pkg/middleware"
	"github.com/solventhq/walletcore/pkg/money"
	transfersvc "github.com/solventhq/walletcore/pkg/service/transfer"
	"github.com/solventhq/walletcore/webapi/common"
)

// Routes registers the transfer endpoints. All routes require a verified
// caller token carrying user_id and tenant_id claims.
//
// Routes:
//   - POST /transfers             : Create a transfer from the caller to another user.
//   - GET  /transfers/:id         : Fetch a transfer with its ledger entries.
//   - POST /transfers/:id/approve : Settle a pending-mode transfer.
//   - POST /transfers/:id/decline : Decline a pending-mode transfer.
func Routes(app *fiber.App, svc *transfersvc.Service, cfg *config.App) {
	app.Post("/transfers", middleware.JwtProtected(cfg.Jwt), Create(svc))
	app.Get("/transfers/:id", middleware.JwtProtected(cfg.Jwt), Get(svc))
	app.Post("/transfers/:id/approve", middleware.JwtProtected(cfg.Jwt), Approve(svc))
	app.Post("/transfers/:id/decline", middleware.JwtProtected(cfg.Jwt), Decline(svc))
}

// Create returns the handler for creating a transfer. The caller is always
// the debit side; the request names the destination user.
func Create(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := common.BindAndValidate[CreateTransferRequest](c)
		if input == nil {
			return err // error response already written
		}

		toUserID, err := uuid.Parse(input.ToUserID)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid destination user", "to_user_id must be a valid UUID")
		}
		extension, err := transferdomain.UnmarshalExtension(input.Extension)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid extension payload", err.Error())
		}

		result, err := svc.CreateTransferWithTransactions(c.UserContext(), transfersvc.CreateParams{
			TenantID:        tenantID,
			FromUserID:      userID,
			ToUserID:        toUserID,
			Amount:          input.Amount,
			Currency:        money.Code(input.Currency),
			FeeAmount:       input.FeeAmount,
			Method:          transferdomain.Method(input.Method),
			ApprovalMode:    transferdomain.ApprovalMode(input.ApprovalMode),
			ExternalRef:     input.ExternalRef,
			FromBalanceType: walletdomain.BalanceType(input.FromBucket),
			ToBalanceType:   walletdomain.BalanceType(input.ToBucket),
			Extension:       extension,
		}, transfersvc.Opts{})
		if err != nil {
			log.Errorf("Failed to create transfer: %v", err)
			return common.DomainErrorJSON(c, "Failed to create transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated,
			"Transfer created", toResultDTO(result))
	}
}

// Get returns the handler for fetching a transfer. Callers only see
// transfers inside their own tenant.
func Get(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		transferID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid transfer ID", "transfer ID must be a valid UUID")
		}

		result, err := svc.GetWithTransactions(c.UserContext(), transferID)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch transfer", err)
		}
		if result.Transfer.TenantID != tenantID {
			return common.ErrorResponseJSON(c, fiber.StatusNotFound,
				"Failed to fetch transfer", "not found")
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK,
			"Transfer fetched", toResultDTO(result))
	}
}

// Approve returns the handler for settling a pending-mode transfer.
func Approve(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		transferID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid transfer ID", "transfer ID must be a valid UUID")
		}
		if err := requireTenant(c, svc, transferID, tenantID); err != nil {
			return err
		}

		t, err := svc.Approve(c.UserContext(), transferID, transfersvc.Opts{})
		if err != nil {
			log.Errorf("Failed to approve transfer %s: %v", transferID, err)
			return common.DomainErrorJSON(c, "Failed to approve transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK,
			"Transfer approved", toTransferDTO(t))
	}
}

// Decline returns the handler for declining a pending-mode transfer.
func Decline(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := middleware.CurrentTenantID(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		transferID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid transfer ID", "transfer ID must be a valid UUID")
		}
		input, err := common.BindAndValidate[DeclineTransferRequest](c)
		if input == nil {
			return err // error response already written
		}
		if err := requireTenant(c, svc, transferID, tenantID); err != nil {
			return err
		}

		t, err := svc.Decline(c.UserContext(), transferID, input.Reason, transfersvc.Opts{})
		if err != nil {
			log.Errorf("Failed to decline transfer %s: %v", transferID, err)
			return common.DomainErrorJSON(c, "Failed to decline transfer", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK,
			"Transfer declined", toTransferDTO(t))
	}
}

// requireTenant hides transfers outside the caller's tenant behind a 404.
func requireTenant(
	c *fiber.Ctx,
	svc *transfersvc.Service,
	transferID, tenantID uuid.UUID,
) error {
	t, err := svc.Get(c.UserContext(), transferID)
	if err != nil {
		return common.DomainErrorJSON(c, "Failed to fetch transfer", err)
	}
	if t.TenantID != tenantID {
		return common.ErrorResponseJSON(c, fiber.StatusNotFound,
			"Failed to fetch transfer", "not found")
	}
	return nil
}
