package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one delivered job body. A nil return acknowledges
// the delivery; an error returns it to the queue. Handlers are expected to
// contain domain failures themselves (log and return nil) and reserve
// errors for transport-level problems, so a poison job cannot loop forever.
type HandlerFunc func(ctx context.Context, body []byte) error

type Consumer struct {
	ch             *amqp.Channel
	log            *slog.Logger
	queueName      string
	workerPoolSize int
}

func NewConsumer(ch *amqp.Channel, log *slog.Logger, queueName string, poolSize int) *Consumer {
	return &Consumer{
		ch:             ch,
		log:            log,
		queueName:      queueName,
		workerPoolSize: poolSize,
	}
}

// Consume delivers queued jobs to handler with at most workerPoolSize
// handlers in flight. Each delivery is held by exactly one handler
// invocation and acked only after it returns; on ctx cancellation intake
// stops and in-flight handlers drain, anything unacked is redelivered
// later.
func (c *Consumer) Consume(
	ctx context.Context,
	handler HandlerFunc,
) error {
	const op = "queue.Consume"

	if err := c.ch.Qos(
		c.workerPoolSize,
		0,
		false,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := c.ch.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, c.workerPoolSize)

		for {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case msg, ok := <-msgs:
				if !ok {
					wg.Wait()
					return
				}

				wg.Add(1)
				semaphore <- struct{}{}

				go func(m amqp.Delivery) {
					defer wg.Done()
					defer func() { <-semaphore }()

					if err := handler(ctx, m.Body); err != nil {
						if err := m.Nack(false, true); err != nil {
							c.log.Error(
								"nack failed",
								slog.String("op", op),
								sl.Err(err),
							)
						}
					} else {
						if err := m.Ack(false); err != nil {
							c.log.Error(
								"ack failed",
								slog.String("op", op),
								sl.Err(err),
							)
						}
					}
				}(msg)
			}
		}
	}()

	return nil
}
