package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"
)

const qrAttachmentName = "ticket-qr.png"

// TicketMessage is everything a notifier needs to deliver a ticket email.
type TicketMessage struct {
	To          string
	TicketID    string
	Category    string
	Description string
	Perks       []string
	ImageURL    string
	QRCode      []byte
}

// Notifier delivers ticket emails. Delivery results never affect stored
// ticket state.
type Notifier interface {
	Send(ctx context.Context, msg TicketMessage) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SMTPNotifier struct {
	cfg  SMTPConfig
	addr string
	auth smtp.Auth
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		cfg:  cfg,
		addr: cfg.Host + ":" + strconv.Itoa(cfg.Port),
		auth: auth,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg TicketMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, text, err := RenderTicketEmail(msg)
	if err != nil {
		return err
	}

	mail := mailyak.New(n.addr, n.auth)
	mail.To(msg.To)
	mail.From(n.cfg.From)
	mail.FromName(n.cfg.FromName)
	mail.Subject(ticketSubject(msg))
	mail.HTML().Set(html)
	mail.Plain().Set(text)
	if len(msg.QRCode) > 0 {
		mail.AttachInline(qrAttachmentName, bytes.NewReader(msg.QRCode))
	}

	if err := mail.Send(); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogNotifier stands in for SMTP when no mail server is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg TicketMessage) error {
	_, text, err := RenderTicketEmail(msg)
	if err != nil {
		return err
	}
	n.log.InfoContext(ctx, "ticket email not sent, SMTP not configured",
		"to", msg.To,
		"subject", ticketSubject(msg),
		"body", text,
		"qr_attached", len(msg.QRCode) > 0,
	)
	return nil
}

func ticketSubject(msg TicketMessage) string {
	return fmt.Sprintf("Your %s ticket %s", msg.Category, msg.TicketID)
}
