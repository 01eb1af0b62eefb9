package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/albo"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramProvider sends messages through the Telegram Bot API.
type TelegramProvider struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewTelegramProvider builds a provider for the given bot and chat.
func NewTelegramProvider(token, chatID string, logger *zap.Logger) *TelegramProvider {
	return &TelegramProvider{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify submits the rendered message via sendMessage. Markdown parse
// mode covers the message's light formatting; link previews are disabled
// so the detail link does not expand. A rejected message is reported as
// undelivered but never raises.
func (t *TelegramProvider) Notify(ctx context.Context, rec albo.Record) (bool, error) {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", RenderMessage(rec))
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("decode telegram response: %w", err)
	}

	if !parsed.OK {
		t.logger.Warn("telegram rejected message",
			zap.String("record_id", rec.ID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("description", parsed.Description),
		)
		return false, nil
	}
	return true, nil
}

// Close for TelegramProvider does nothing.
func (t *TelegramProvider) Close() error { return nil }
