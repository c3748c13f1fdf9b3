package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes domain events to RabbitMQ.  Each call dials, declares
// the durable queue named by the routing key and publishes one persistent
// message.  Errors are logged and returned so callers can choose to ignore
// them without interrupting the main request flow.
type Publisher struct {
    url string
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
    body, err := json.Marshal(event)
    if err != nil {
        log.Errorf("rabbitmq: marshal %s event failed: %v", routingKey, err)
        return err
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Errorf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Errorf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        routingKey, // name
        true,       // durable
        false,      // autoDelete
        false,      // exclusive
        false,      // noWait
        nil,        // args
    ); err != nil {
        log.Errorf("rabbitmq: queue declare %s failed: %v", routingKey, err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",         // default exchange
        routingKey, // routing key = queue name
        false,      // mandatory
        false,      // immediate
        pub,
    ); err != nil {
        log.Errorf("rabbitmq: publish %s failed: %v", routingKey, err)
        return err
    }
    return nil
}
