package main

import (
	main_config "github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/repositories"
	"github.com/suricat89/baas-core/internal/servers/transactions"
	transactions_handlers "github.com/suricat89/baas-core/internal/servers/transactions/handlers"
	"github.com/suricat89/baas-core/internal/storage"
	"go.uber.org/fx"
)

func main() {
	fx.New(CreateApp()).Run()
}

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			logging.NewZapLogger,
			storage.NewStorage,

			repositories.NewAccountsRepository,
			repositories.NewTransactionsRepository,
			repositories.NewOutboxEventsRepository,
			fx.Annotate(repositories.NewPGStore, fx.As(new(engine.Store))),

			// HTTP server
			transactions.NewServer,
			transactions_handlers.NewSimpleTransactionHandler,
			fx.Annotate(engine.NewEngine, fx.As(new(transactions_handlers.SimpleTransactionEngine))),
			transactions_handlers.NewP2PHandler,
			fx.Annotate(engine.NewEngine, fx.As(new(transactions_handlers.P2PEngine))),
			transactions_handlers.NewStatementHandler,
			fx.Annotate(engine.NewEngine, fx.As(new(transactions_handlers.StatementEngine))),
		),
		fx.Supply(
			main_config.MustNewConfig(),
		),
		fx.Invoke(
			startTransactionsServer,
		),
	)
}

func startTransactionsServer(*transactions.Server) {}
