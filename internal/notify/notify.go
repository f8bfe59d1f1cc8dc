// Package notify delivers owner notifications: the log, a JSON webhook and
// the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/envelope/internal/model"
)

const (
	requestTimeout  = 10 * time.Second
	maxBodySize     = 64 << 10
	telegramBaseURL = "https://api.telegram.org"
	userAgent       = "github.com/theirongolddev/envelope/1.0"
)

// Kind classifies a message.
type Kind string

const (
	KindReset    Kind = "reset"
	KindReport   Kind = "report"
	KindReminder Kind = "reminder"
	KindAlert    Kind = "alert"
)

// Message is one notification for an owner.
type Message struct {
	Kind Kind
	Text string
}

// Notifier delivers messages. Delivery is best-effort: callers log a
// returned error and carry on.
type Notifier interface {
	Send(ctx context.Context, owner int64, msg Message) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, owner int64, msg Message) error

// Send calls f.
func (f Func) Send(ctx context.Context, owner int64, msg Message) error {
	return f(ctx, owner, msg)
}

// Log writes messages to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Send logs msg at info level.
func (l Log) Send(_ context.Context, owner int64, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "owner", owner, "kind", string(msg.Kind), "text", msg.Text)
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

// Send fans msg out.
func (m Multi) Send(ctx context.Context, owner int64, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, owner, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Webhook POSTs each message as JSON to a URL.
type Webhook struct {
	url  string
	http *http.Client
}

// NewWebhook returns a Webhook for url, or nil when url is empty.
func NewWebhook(url string) *Webhook {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return &Webhook{url: url, http: &http.Client{}}
}

type webhookPayload struct {
	Owner  int64     `json:"owner"`
	Kind   Kind      `json:"kind"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Send posts msg.
func (w *Webhook) Send(ctx context.Context, owner int64, msg Message) error {
	body, err := json.Marshal(webhookPayload{Owner: owner, Kind: msg.Kind, Text: msg.Text, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("webhook: encoding: %w", err)
	}
	return post(ctx, w.http, w.url, body, "webhook")
}

// Telegram sends messages through the Bot API. The owner id is the chat id.
type Telegram struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewTelegram returns a Telegram notifier for a bot token, or nil when the
// token is empty.
func NewTelegram(token string) *Telegram {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return &Telegram{token: token, baseURL: telegramBaseURL, http: &http.Client{}}
}

type telegramRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Send calls sendMessage.
func (t *Telegram) Send(ctx context.Context, owner int64, msg Message) error {
	body, err := json.Marshal(telegramRequest{ChatID: owner, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("telegram: encoding: %w", err)
	}
	return post(ctx, t.http, t.baseURL+"/bot"+t.token+"/sendMessage", body, "telegram")
}

func post(ctx context.Context, client *http.Client, url string, body []byte, channel string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL comes from operator configuration
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", channel, model.ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w: status %d", channel, model.ErrDelivery, resp.StatusCode)
	}
	return nil
}

// FromConfig assembles the configured channels. Log delivery is always on.
func FromConfig(logger *slog.Logger, webhookURL, telegramToken string) Notifier {
	m := Multi{Log{Logger: logger}}
	if w := NewWebhook(webhookURL); w != nil {
		m = append(m, w)
	}
	if t := NewTelegram(telegramToken); t != nil {
		m = append(m, t)
	}
	return m
}
