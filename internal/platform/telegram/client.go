package telegram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "ad-escrow-backend/internal/common/errors"
	"ad-escrow-backend/internal/common/logger"
	"ad-escrow-backend/internal/features/escrow/models"

	"github.com/rs/zerolog"
)

// Client talks to the Telegram Bot API directly over HTTP. It implements
// the content-verification contract: the only way a bot can read an
// arbitrary channel post is to forward it into a chat the bot controls,
// hash the copy, and delete it again.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        zerolog.Logger
}

func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, "https://api.telegram.org")
}

func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		log:        logger.With("telegram"),
	}
}

// Message is the subset of the Bot API message object the verifier needs.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// CheckPostStatus reports whether the post still exists in the channel and
// whether its current content hash matches expectedHash. The forwarded
// copy in the verification chat is deleted on a best-effort basis.
func (c *Client) CheckPostStatus(ctx context.Context, channelID int64, postID uint64, expectedHash [32]byte, verificationChatID int64) (models.PostStatus, error) {
	copied, err := c.forwardMessage(ctx, verificationChatID, channelID, postID)
	if err != nil {
		if isMessageMissing(err) {
			return models.PostDeleted, nil
		}
		return "", err
	}
	defer c.deleteMessage(ctx, verificationChatID, copied.MessageID)

	content := copied.Text
	if content == "" {
		content = copied.Caption
	}
	if sha256.Sum256([]byte(content)) != expectedHash {
		return models.PostModified, nil
	}
	return models.PostValid, nil
}

func (c *Client) forwardMessage(ctx context.Context, toChat, fromChat int64, messageID uint64) (*Message, error) {
	var msg Message
	err := c.call(ctx, "forwardMessage", map[string]interface{}{
		"chat_id":              toChat,
		"from_chat_id":         fromChat,
		"message_id":           messageID,
		"disable_notification": true,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) deleteMessage(ctx context.Context, chatID, messageID int64) {
	err := c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
	if err != nil {
		c.log.Warn().
			Int64("chat_id", chatID).
			Int64("message_id", messageID).
			Err(err).
			Msg("Failed to delete verification copy")
	}
}

func (c *Client) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTelegramAPIError(method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return apperrors.NewTelegramAPIError(method, err)
	}
	if !api.Ok {
		if api.ErrorCode == http.StatusTooManyRequests {
			return apperrors.NewRateLimitError("telegram", time.Second)
		}
		return apperrors.NewTelegramAPIError(method, fmt.Errorf("telegram api %d: %s", api.ErrorCode, api.Description))
	}

	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return apperrors.NewTelegramAPIError(method, err)
		}
	}
	return nil
}

// isMessageMissing matches the Bot API descriptions returned when the
// original post no longer exists.
func isMessageMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"message to forward not found",
		"message to copy not found",
		"message_id_invalid",
		"message not found",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
