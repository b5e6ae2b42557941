package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const apiURL = "https://api.telegram.org"

type Bot struct {
	token   string
	baseURL string
	client  *http.Client
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewBot(token string) *Bot {
	return NewBotWithURL(token, apiURL)
}

// NewBotWithURL points the bot at a different Bot API host.
func NewBotWithURL(token, base string) *Bot {
	return &Bot{
		token:   token,
		baseURL: strings.TrimRight(base, "/") + "/bot" + token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("telegram: empty chat id")
	}

	params := url.Values{}
	params.Add("chat_id", chatID)
	params.Add("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/sendMessage", strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK || !body.OK {
		return fmt.Errorf("telegram API error: %s %s", resp.Status, body.Description)
	}

	logrus.WithField("chat_id", chatID).Debug("Telegram message sent")
	return nil
}
