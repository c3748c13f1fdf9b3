// Package mail delivers ticket emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"net/textproto"
	texttemplate "text/template"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jordan-wright/email"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const (
	defaultSubject = "Your ticket {{.Code}}"

	textBody = `Hello {{.Name}},

Your ticket code is {{.Code}}.
Show the QR code at this link at the entrance:
{{.ImageLink}}
`

	htmlBody = `<p>Hello {{.Name}},</p>
<p>Your ticket code is <strong>{{.Code}}</strong>.</p>
<p>Show this QR code at the entrance:</p>
<p><img src="{{.ImageLink}}" alt="ticket {{.Code}}" width="400"></p>
<p><a href="{{.ImageLink}}">{{.ImageLink}}</a></p>
`
)

// Message is a rendered ticket email.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// Composer renders ticket emails from the subject and body templates.
type Composer struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// NewComposer parses subject as a text/template over model.DispatchJob.  An
// empty subject uses the default "Your ticket {{.Code}}".
func NewComposer(subject string) (*Composer, error) {
	if subject == "" {
		subject = defaultSubject
	}
	s, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return nil, errors.Wrap(err, "parsing mail subject")
	}
	return &Composer{
		subject: s,
		text:    texttemplate.Must(texttemplate.New("text").Parse(textBody)),
		html:    htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody)),
	}, nil
}

// Compose renders the email for one job.
func (c *Composer) Compose(job model.DispatchJob) (*Message, error) {
	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, job); err != nil {
		return nil, errors.Wrap(err, "rendering subject")
	}
	if err := c.text.Execute(&text, job); err != nil {
		return nil, errors.Wrap(err, "rendering text body")
	}
	if err := c.html.Execute(&html, job); err != nil {
		return nil, errors.Wrap(err, "rendering html body")
	}
	return &Message{Subject: subject.String(), TextBody: text.String(), HTMLBody: html.String()}, nil
}

// Options configure the SMTP connection.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Subject  string
	PoolSize int
}

// SMTPMailer sends ticket emails through a pool of SMTP connections.
type SMTPMailer struct {
	from     string
	composer *Composer
	pool     *email.Pool
}

// NewSMTPMailer opens a connection pool sized to the dispatcher's workers.
// Connections are dialled lazily.
func NewSMTPMailer(opts Options) (*SMTPMailer, error) {
	if opts.Host == "" || opts.From == "" {
		return nil, errors.New("SMTP_HOST and MAIL_FROM must be set")
	}
	if opts.PoolSize < 1 {
		opts.PoolSize = 1
	}
	composer, err := NewComposer(opts.Subject)
	if err != nil {
		return nil, err
	}
	var auth smtp.Auth
	if opts.User != "" {
		auth = smtp.PlainAuth("", opts.User, opts.Password, opts.Host)
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	pool, err := email.NewPool(addr, opts.PoolSize, auth)
	if err != nil {
		return nil, errors.Wrapf(err, "creating SMTP pool for %s", addr)
	}
	return &SMTPMailer{from: opts.From, composer: composer, pool: pool}, nil
}

// Send mails the ticket for job.  The send is bounded by ctx's deadline,
// or by one minute when ctx has none.
func (m *SMTPMailer) Send(ctx context.Context, job model.DispatchJob) error {
	e, err := m.build(job)
	if err != nil {
		return err
	}
	timeout := time.Minute
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.pool.Send(e, timeout); err != nil {
		return errors.Wrapf(err, "sending ticket %s to %s", job.Code, job.Email)
	}
	return nil
}

func (m *SMTPMailer) build(job model.DispatchJob) (*email.Email, error) {
	msg, err := m.composer.Compose(job)
	if err != nil {
		return nil, err
	}
	return &email.Email{
		To:      []string{job.Email},
		From:    m.from,
		Subject: msg.Subject,
		Text:    []byte(msg.TextBody),
		HTML:    []byte(msg.HTMLBody),
		Headers: textproto.MIMEHeader{},
	}, nil
}

func (m *SMTPMailer) Close() { m.pool.Close() }
