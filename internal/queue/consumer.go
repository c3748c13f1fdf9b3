package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/cenkalti/backoff/v4"
    "github.com/cockroachdb/errors"
    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// CheckinAuditConsumer listens to the ticket.checked_in queue and appends one
// line per check-in to <dir>/checkin.log, giving the door staff an audit
// trail that does not depend on the sheet's revision history.
type CheckinAuditConsumer struct {
    url string
    dir string
}

func NewCheckinAuditConsumer(url, dir string) *CheckinAuditConsumer {
    return &CheckinAuditConsumer{url: url, dir: dir}
}

// Run connects, declares the durable queue and consumes until ctx is done.
// Broker failures trigger a reconnect with capped exponential backoff; a
// message that cannot be handled is logged and rejected without requeue so
// it cannot loop.
func (c *CheckinAuditConsumer) Run(ctx context.Context) error {
    b := reconnectBackOff()
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            wait := b.NextBackOff()
            log.Warnf("checkin-consumer: failed to dial broker: %v; retrying in %s", err, wait)
            if !sleep(ctx, wait) {
                return ctx.Err()
            }
            continue
        }
        b.Reset()

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warnf("checkin-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, b.NextBackOff()) {
            return ctx.Err()
        }
    }
}

// reconnectBackOff starts at one second and caps at thirty.  It never gives
// up; only the context stops the consumer.
func reconnectBackOff() *backoff.ExponentialBackOff {
    b := backoff.NewExponentialBackOff()
    b.InitialInterval = time.Second
    b.MaxInterval = 30 * time.Second
    b.MaxElapsedTime = 0
    b.Reset()
    return b
}

func (c *CheckinAuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warnf("checkin-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(TicketCheckedInKey, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    msgs, err := ch.Consume(TicketCheckedInKey, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                log.Errorf("checkin-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *CheckinAuditConsumer) handleMessage(body []byte) error {
    var ev TicketCheckedInEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return errors.Wrapf(err, "mkdir %s", c.dir)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, "checkin.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open log file")
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Ticket checked in | code=%s | row=%d | name=%q | student_id=%s | class=%q\n",
        ev.CheckedInAt, ev.Code, ev.Row, ev.Name, ev.StudentID, ev.Class)
    if _, err := f.WriteString(line); err != nil {
        return errors.Wrap(err, "write log")
    }
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
