package main

import (
	main_config "github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/repositories"
	"github.com/suricat89/baas-core/internal/storage"
	"github.com/suricat89/baas-core/internal/transaction_outbox"
	"go.uber.org/fx"
)

func main() {
	fx.New(CreateApp()).Run()
}

func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			logging.NewZapLogger,
			logging.NewKafkaLogger,
			logging.NewKafkaErrorLogger,
			storage.NewStorage,

			transaction_outbox.NewDaemon,
			fx.Annotate(
				repositories.NewOutboxEventsRepository,
				fx.As(new(transaction_outbox.OutboxEventsRepository)),
			),
			fx.Annotate(
				transaction_outbox.NewPublisher,
				fx.As(new(transaction_outbox.EventsPublisher)),
			),
		),
		fx.Supply(
			main_config.MustNewConfig(),
			transaction_outbox.MustNewConfig(),
		),
		fx.Invoke(
			startOutboxDaemon,
		),
	)
}

func startOutboxDaemon(*transaction_outbox.Daemon) {}
