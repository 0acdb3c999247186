package queue

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/celine-eu/rec-registry/internal/util"
)

const ExchangeName = "registry_events"

// Init dials RabbitMQ from the environment. The broker is optional
// infrastructure: callers decide whether a failed dial is fatal.
func Init() (*amqp091.Connection, error) {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	var conn *amqp091.Connection
	err := util.RetryErr(5, func() error {
		var dialErr error
		conn, dialErr = amqp091.Dial(connURL)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	return conn, nil
}
