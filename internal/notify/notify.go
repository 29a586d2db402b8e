// Package notify sends operational alerts to Slack and email. Channels
// without credentials are skipped with a warning so a missing webhook or
// SMTP login never interrupts a scrape.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"mnsos/internal/config"
	apperrors "mnsos/internal/errors"
)

// Severity selects the alert color and tone.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// emailSubjectPrefix tags every alert email so inbox filters can route them.
const emailSubjectPrefix = "[MN Scraper] "

// color returns the Slack attachment sidebar color for the severity.
func (s Severity) color() string {
	switch s {
	case SeveritySuccess:
		return "#28a745"
	case SeverityError:
		return "#dc3545"
	case SeverityWarning:
		return "#ffc107"
	default:
		return "#003366"
	}
}

// slackPayload is the webhook body. The attachments format renders a colored
// sidebar next to the message.
type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string `json:"color"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Footer    string `json:"footer"`
	Timestamp int64  `json:"ts"`
}

// Notifier fans an alert out to every configured channel.
type Notifier struct {
	cfg    config.NotifyConfig
	client *resty.Client
	logger *slog.Logger
	now    func() time.Time

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New builds a Notifier from the notify configuration.
func New(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Notifier{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		now:      time.Now,
		sendMail: smtp.SendMail,
	}
}

// Send delivers the alert to every configured channel and reports per-channel
// success. An unconfigured channel is skipped and does not appear in the
// results. Send never panics and never returns an error; callers treat
// notification as best-effort.
func (n *Notifier) Send(ctx context.Context, title, message string, severity Severity) map[string]bool {
	results := make(map[string]bool)

	if n.cfg.SlackWebhookURL != "" {
		results["slack"] = n.sendSlack(ctx, title, message, severity)
	} else {
		n.logger.WarnContext(ctx, "slack webhook not configured, skipping alert")
	}

	if n.emailConfigured() {
		results["email"] = n.sendEmail(ctx, title, message)
	} else {
		n.logger.WarnContext(ctx, "email not configured, skipping alert")
	}

	return results
}

func (n *Notifier) emailConfigured() bool {
	return n.cfg.SMTPUser != "" && n.cfg.SMTPPassword != "" && n.cfg.EmailTo != ""
}

func (n *Notifier) sendSlack(ctx context.Context, title, message string, severity Severity) bool {
	payload := slackPayload{
		Attachments: []slackAttachment{{
			Color:     severity.color(),
			Title:     title,
			Text:      message,
			Footer:    "MN Business Scraper",
			Timestamp: n.now().Unix(),
		}},
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.cfg.SlackWebhookURL)
	if err != nil {
		n.logger.ErrorContext(ctx, "slack alert failed",
			slog.String("title", title),
			slog.String("error", err.Error()))
		return false
	}
	if resp.StatusCode() != 200 {
		n.logger.ErrorContext(ctx, "slack returned non-ok status",
			slog.String("title", title),
			slog.Int("status", resp.StatusCode()))
		return false
	}

	n.logger.InfoContext(ctx, "slack alert sent", slog.String("title", title))
	return true
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) bool {
	from := n.cfg.EmailFrom
	if from == "" {
		from = n.cfg.SMTPUser
	}

	stamp := n.now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s%s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n\r\n---\r\nSent at: %s\r\nMN Business Scraper Alert System\r\n",
		from, n.cfg.EmailTo, emailSubjectPrefix, subject, body, stamp)

	addr := n.cfg.SMTPHost + ":" + strconv.Itoa(n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPassword, n.cfg.SMTPHost)

	if err := n.sendMail(addr, auth, from, []string{n.cfg.EmailTo}, []byte(msg)); err != nil {
		appErr := apperrors.NewNetworkError("failed to send alert email", err)
		n.logger.ErrorContext(ctx, "email alert failed",
			slog.String("subject", subject),
			slog.String("error", appErr.Error()))
		return false
	}

	n.logger.InfoContext(ctx, "email alert sent", slog.String("subject", subject))
	return true
}
