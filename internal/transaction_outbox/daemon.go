package transaction_outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Daemon drains the outbox: each worker claims the oldest unpublished
// event, pushes it to Kafka and moves it to finished, or to failed so a
// later operator can replay it. Events are written by the engine in the
// same database transaction as the balance mutation they describe.
type Daemon struct {
	lg           *logging.ZapLogger
	pollInterval time.Duration
	workersCount int64
	cfg          *Config

	cancaller context.CancelFunc
	globalCtx context.Context
	events    OutboxEventsRepository
	publisher EventsPublisher
}

type OutboxEventsRepository interface {
	ReserveTransactionProcessedEvent(ctx context.Context) (*models.TransactionEvent, error)
	SetState(ctx context.Context, uuid string, newState string) error
}

type EventsPublisher interface {
	Publish(ctx context.Context, e *models.TransactionEvent) error
}

func NewDaemon(
	lc fx.Lifecycle,
	events OutboxEventsRepository,
	lg *logging.ZapLogger,
	cfg *Config,
	publisher EventsPublisher,
) *Daemon {
	dmn := &Daemon{
		lg:           lg,
		pollInterval: time.Duration(cfg.PollInterval) * time.Millisecond,
		events:       events,
		workersCount: cfg.WorkersCount,
		cfg:          cfg,
		publisher:    publisher,
	}
	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				dmn.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				dmn.cancaller()
				return nil
			},
		},
	)

	return dmn
}

func (dmn *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	dmn.cancaller = cancel
	dmn.globalCtx = dmn.lg.WithContextFields(ctx, zap.String("name", "transaction_outbox_daemon"))

	dmn.lg.DebugCtx(
		ctx,
		fmt.Sprintf("start publishing %s events", models.TransactionProcessedEventName),
		zap.Any("config", dmn.cfg),
	)

	for i := 0; i < int(dmn.workersCount); i++ {
		wctx := dmn.lg.WithContextFields(dmn.globalCtx, zap.Int("worker_id", i))
		go func() {
			ticker := time.NewTicker(dmn.pollInterval)

			for {
				select {
				case <-wctx.Done():
					dmn.lg.DebugCtx(wctx, "daemon worker graceful shutdown")
					return
				case <-ticker.C:
					if err := dmn.processEvent(wctx); err != nil {
						dmn.lg.ErrorCtx(wctx, "process event finished error", zap.Error(err))
					}
				}
			}
		}()
	}
}

func (dmn *Daemon) processEvent(ctx context.Context) error {
	e, err := dmn.events.ReserveTransactionProcessedEvent(ctx)
	if err != nil {
		return fmt.Errorf("find first unpublished event error %w", err)
	}

	if e == nil {
		return nil
	}

	ctx = dmn.lg.WithContextFields(ctx, zap.String("event_uuid", e.UUID))

	if err := dmn.publisher.Publish(ctx, e); err != nil {
		if err := dmn.events.SetState(ctx, e.UUID, models.TransactionEventFailedState); err != nil {
			return fmt.Errorf("set processing event %s state error %w", models.TransactionEventFailedState, err)
		}

		return fmt.Errorf("publish event error %w", err)
	}

	return dmn.events.SetState(ctx, e.UUID, models.TransactionEventFinishedState)
}
