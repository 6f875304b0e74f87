package mail

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/url"

	"github.com/dajohi/goemail"

	"github.com/odialabs/coaching-api/internal/config"
)

// Client is an SMTP mail sender. When the SMTP settings are absent the
// client is disabled and every Send becomes a logged no-op, so local
// development never needs a mail server.
type Client struct {
	smtp     *goemail.SMTP
	name     string
	from     string
	disabled bool
}

// NewClient builds a Client from the SMTP configuration. Missing
// host or user disables mail entirely.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		log.Println("[mail] smtp not configured, mail disabled")
		return &Client{disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%s:%s@%s:%s",
		url.QueryEscape(cfg.SMTPUser), url.QueryEscape(cfg.SMTPPass),
		cfg.SMTPHost, cfg.SMTPPort)
	u, err := url.Parse(h)
	if err != nil {
		return nil, err
	}

	smtp, err := goemail.NewSMTP(u.String(), &tls.Config{})
	if err != nil {
		return nil, err
	}
	return &Client{
		smtp: smtp,
		name: cfg.MailName,
		from: cfg.SMTPUser,
	}, nil
}

// Disabled reports whether outgoing mail is turned off.
func (c *Client) Disabled() bool { return c.disabled }

// Send delivers one HTML email to a single recipient.
func (c *Client) Send(to, subject, body string) error {
	if c.disabled {
		return nil
	}
	msg := goemail.NewHTMLMessage(c.from, subject, body)
	msg.AddTo(to)
	msg.SetName(c.name)
	return c.smtp.Send(msg)
}

// SendAsync delivers in a goroutine and logs failures. Mail must never
// fail a request: a booking that cannot email its confirmation is still
// a booking.
func (c *Client) SendAsync(to, subject, body string) {
	if c.disabled {
		return
	}
	go func() {
		if err := c.Send(to, subject, body); err != nil {
			log.Printf("[mail] send to %s failed: %v", to, err)
		}
	}()
}
