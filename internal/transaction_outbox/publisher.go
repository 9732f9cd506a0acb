package transaction_outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"go.uber.org/fx"
)

// Publisher writes transaction events to the transaction_processed topic,
// keyed by transaction uuid so consumers see one account's events in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(
	lc fx.Lifecycle,
	cfg *Config,
	globalCFG *config.Config,
	errLogger *logging.KafkaErrorLogger,
	logger *logging.KafkaLogger,
) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(globalCFG.KafkaBrokers...),
		Topic:        cfg.KafkaTransactionProcessedTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		ErrorLogger:  errLogger,
		Logger:       logger,
	}

	pub := &Publisher{writer: w}

	lc.Append(
		fx.Hook{
			OnStop: func(ctx context.Context) error {
				return pub.writer.Close()
			},
		},
	)

	return pub
}

func (p *Publisher) Publish(ctx context.Context, e *models.TransactionEvent) error {
	payload, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("transaction_outbox/publisher: marshal event error %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Meta.TransactionUUID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("transaction_outbox/publisher: write message error %w", err)
	}

	return nil
}
