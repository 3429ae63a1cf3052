// Package mail sends transactional mail over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"recipeshare/internal/config"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("mail: sender closed")

// Mailer is what handlers need from the mail transport.
type Mailer interface {
	SendWelcome(ctx context.Context, to, username string) error
	// SendWelcomeAsync sends in the background; failures are logged.
	SendWelcomeAsync(to, username string)
	Close() error
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

const sendTimeout = 30 * time.Second

// Sender is an SMTP Mailer. Close waits for background sends to finish.
type Sender struct {
	addr    string
	auth    smtp.Auth
	from    *mail.Address
	siteURL string
	log     *zap.Logger
	send    sendFunc
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewSender builds a Sender from cfg. cfg.Host must be set.
func NewSender(cfg config.MailConfig, log *zap.Logger) (*Sender, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: host is required")
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("mail: from address: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Sender{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:    auth,
		from:    from,
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
		log:     log,
		send:    deliver,
		timeout: sendTimeout,
	}, nil
}

// SendWelcome sends the registration mail.
func (s *Sender) SendWelcome(ctx context.Context, to, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("mail: recipient: %w", err)
	}
	body := fmt.Sprintf("Hi %s,\r\n\r\nWelcome to Recipeshare! Your kitchen is ready:\r\n%s/profile/%s\r\n\r\nHappy cooking.\r\n",
		username, s.siteURL, username)
	msg := buildMessage(s.from, rcpt, "Welcome to Recipeshare", body, time.Now())
	if err := s.send(ctx, s.addr, s.auth, s.from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("mail: send welcome: %w", err)
	}
	return nil
}

// SendWelcomeAsync implements Mailer.
func (s *Sender) SendWelcomeAsync(to, username string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warn("welcome mail dropped, sender closed", zap.String("to", to))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.SendWelcome(ctx, to, username); err != nil {
			s.log.Error("welcome mail failed", zap.String("to", to), zap.Error(err))
		}
	}()
}

// Close stops accepting mail and waits for in-flight sends.
func (s *Sender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func buildMessage(from, to *mail.Address, subject, body string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Nop is the Mailer used when no SMTP host is configured.
type Nop struct{}

func (Nop) SendWelcome(context.Context, string, string) error { return nil }
func (Nop) SendWelcomeAsync(string, string)                   {}
func (Nop) Close() error                                      { return nil }
