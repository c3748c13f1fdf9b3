package mail

import (
	"context"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// LogMailer writes ticket emails to the log instead of sending them.  It
// stands in for SMTP on local runs.
type LogMailer struct {
	composer *Composer
}

func NewLogMailer(subject string) (*LogMailer, error) {
	c, err := NewComposer(subject)
	if err != nil {
		return nil, err
	}
	return &LogMailer{composer: c}, nil
}

func (m *LogMailer) Send(_ context.Context, job model.DispatchJob) error {
	msg, err := m.composer.Compose(job)
	if err != nil {
		return err
	}
	log.Infof("mail (not sent): to=%s subject=%q\n%s", job.Email, msg.Subject, msg.TextBody)
	return nil
}
