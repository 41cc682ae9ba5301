// Package queue is the durable price-check job queue on RabbitMQ.
//
// Jobs are published persistently onto a durable queue and acknowledged
// manually after the handler returns, which gives at-least-once delivery:
// a worker that dies holding an unacked job has it redelivered. Handlers
// must therefore tolerate duplicate execution.
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func New(url, queueName string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	// Durable queue: enqueued jobs survive a broker restart.
	if _, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %q: %w", queueName, err)
	}

	return &Client{
		conn:    conn,
		Channel: ch,
	}, nil
}

func (c *Client) Close() error {
	if err := c.Channel.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
