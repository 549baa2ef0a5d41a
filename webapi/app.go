// Package webapi assembles the HTTP surface over the wallet and transfer
// services.
package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/solventhq/walletcore/pkg/config"
	transfersvc "github.com/solventhq/walletcore/pkg/service/transfer"
	walletsvc "github.com/solventhq/walletcore/pkg/service/wallet"
	"github.com/solventhq/walletcore/webapi/common"
	transferapi "github.com/solventhq/walletcore/webapi/transfer"
	walletapi "github.com/solventhq/walletcore/webapi/wallet"
)

// NewApp builds the fiber application with all routes registered.
func NewApp(
	cfg *config.App,
	walletSvc *walletsvc.Service,
	transferSvc *transfersvc.Service,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "walletcore",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			title := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
				title = e.Message
			}
			return common.ErrorResponseJSON(c, status, title, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ErrorResponseJSON(c, fiber.StatusTooManyRequests,
				"Too Many Requests", "Rate limit exceeded")
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	walletapi.Routes(app, walletSvc, cfg)
	transferapi.Routes(app, transferSvc, cfg)

	return app
}
