package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Producer struct {
	ch        *amqp.Channel
	queueName string
}

func NewProducer(ch *amqp.Channel, queueName string) *Producer {
	return &Producer{
		ch:        ch,
		queueName: queueName,
	}
}

// Enqueue publishes a price-check job for the product and returns the job id.
func (p *Producer) Enqueue(ctx context.Context, productID, url string) (string, error) {
	const op = "queue.Enqueue"

	job := models.PriceCheckJob{
		JobID:      uuid.NewString(),
		ProductID:  productID,
		URL:        url,
		EnqueuedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.JobID,
			Body:         body,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return job.JobID, nil
}
