package provider

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSMTPDialTimeout = 5 * time.Second

// SMTPAdapter delivers email through a plain SMTP relay (e.g. a Gmail or
// Office 365 submission endpoint).
type SMTPAdapter struct {
	host     string
	port     int
	username string
	password string
	from     string
	desc     Descriptor

	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
	dial     func(network, addr string, timeout time.Duration) (net.Conn, error)
}

func NewSMTPAdapter(host string, port int, username, password, from string, priority, rateLimit int) (*SMTPAdapter, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid smtp port %d", port)
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	return &SMTPAdapter{
		host:     host,
		port:     port,
		username: strings.TrimSpace(username),
		password: password,
		from:     from,
		desc: Descriptor{
			Name:      "smtp",
			Priority:  priority,
			RateLimit: rateLimit,
		},
		sendMail: smtp.SendMail,
		dial:     net.DialTimeout,
	}, nil
}

func (a *SMTPAdapter) Descriptor() Descriptor { return a.desc }

func (a *SMTPAdapter) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if a == nil {
		return nil, fmt.Errorf("smtp adapter is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Provider: a.desc.Name, Message: "send canceled", Transient: false, Cause: err}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), a.host)
	body := buildMIMEMessage(a.from, messageID, msg)

	var auth smtp.Auth
	if a.username != "" {
		auth = smtp.PlainAuth("", a.username, a.password, a.host)
	}

	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	if err := a.sendMail(addr, auth, a.from, msg.To, body); err != nil {
		return nil, &Error{
			Provider: a.desc.Name,
			Message:  "smtp delivery failed",
			// Relay-side errors are overwhelmingly connectivity or greylisting.
			Transient: true,
			Cause:     err,
		}
	}

	return &SendResult{
		MessageID:   messageID,
		Provider:    a.desc.Name,
		DeliveredAt: time.Now().UTC(),
	}, nil
}

// Probe dials the relay and closes the connection without submitting mail.
func (a *SMTPAdapter) Probe(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("smtp adapter is not initialized")
	}
	if a.username != "" && a.password == "" {
		return fmt.Errorf("smtp password is not configured")
	}

	timeout := defaultSMTPDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	conn, err := a.dial("tcp", fmt.Sprintf("%s:%d", a.host, a.port), timeout)
	if err != nil {
		return fmt.Errorf("smtp relay unreachable: %w", err)
	}
	return conn.Close()
}

const mimeBoundary = "leadnotify-alt-boundary"

func buildMIMEMessage(from, messageID string, msg Message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.HTML != "" && msg.Text != "":
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
		fmt.Fprintf(&b, "\r\n--%s\r\n", mimeBoundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTML)
		fmt.Fprintf(&b, "\r\n--%s--\r\n", mimeBoundary)
	case msg.HTML != "":
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(msg.Text)
	}

	return []byte(b.String())
}
