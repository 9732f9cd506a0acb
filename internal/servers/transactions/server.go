package transactions

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/servers/transactions/handlers"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func (s *Server) Start() error {
	go s.app.Listen(s.cfg.HTTPAddress)

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func NewServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	lg *logging.ZapLogger,
	simple *handlers.SimpleTransactionHandler,
	p2p *handlers.P2PHandler,
	statement *handlers.StatementHandler,
) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Post("/api/transaction/withdraw", simple.NewWithdraw)
	app.Post("/api/transaction/deposit", simple.NewDeposit)
	app.Post("/api/transaction/debit", simple.NewDebit)
	app.Post("/api/transaction/p2p", p2p.NewP2P)
	app.Get("/api/account", statement.GetStatement)

	srv := &Server{app: app, cfg: cfg}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				lg.InfoCtx(ctx, "start processing transaction requests", zap.Any("config", srv.cfg))

				return srv.Start()
			},
			OnStop: func(ctx context.Context) error {
				return srv.Stop(ctx)
			},
		},
	)

	return srv
}
