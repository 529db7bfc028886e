package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"streamstrip/internal/chat"
	"streamstrip/internal/config"
	"streamstrip/internal/logging"
)

// Client talks to the Telegram Bot API.
type Client struct {
	bot          *tgbotapi.BotAPI
	base         tgbotapi.HTTPClient
	fileEndpoint string
	pollTimeout  int
	logger       *slog.Logger
}

// Options configures a Client.
type Options struct {
	Token        string
	APIEndpoint  string
	FileEndpoint string
	PollTimeout  int
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// OptionsFromConfig maps the [telegram] config section onto client options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Token:        cfg.Telegram.BotToken,
		APIEndpoint:  cfg.Telegram.APIEndpoint,
		FileEndpoint: cfg.Telegram.FileEndpoint,
		PollTimeout:  cfg.Telegram.PollTimeout,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: time.Duration(cfg.Telegram.RequestTimeout) * time.Second,
			},
		},
		Logger: logger,
	}
}

// New authenticates against the Bot API and returns a ready client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	apiEndpoint := opts.APIEndpoint
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	fileEndpoint := opts.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, apiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate bot: %w", err)
	}

	logger := logging.NewComponentLogger(opts.Logger, "telegram")
	logger.Info("telegram bot authenticated",
		logging.String(logging.FieldEventType, "bot_authenticated"),
		logging.String("bot_username", bot.Self.UserName),
	)

	return &Client{
		bot:          bot,
		base:         httpClient,
		fileEndpoint: fileEndpoint,
		pollTimeout:  opts.PollTimeout,
		logger:       logger,
	}, nil
}

// Username returns the authenticated bot's username.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendText posts a message, optionally as a reply, and returns its handle.
func (c *Client) SendText(ctx context.Context, chatID int64, replyTo int, text string, keyboard chat.Keyboard) (chat.StatusHandle, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if markup, ok := inlineMarkup(keyboard); ok {
		msg.ReplyMarkup = markup
	}
	return c.send(ctx, msg)
}

// SendMarkdown posts a Markdown formatted message.
func (c *Client) SendMarkdown(ctx context.Context, chatID int64, replyTo int, text string, keyboard chat.Keyboard) (chat.StatusHandle, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if markup, ok := inlineMarkup(keyboard); ok {
		msg.ReplyMarkup = markup
	}
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) (chat.StatusHandle, error) {
	sent, err := c.withContext(ctx).Send(msg)
	if err != nil {
		return chat.StatusHandle{}, fmt.Errorf("telegram: send message: %w", err)
	}
	var chatID int64
	if sent.Chat != nil {
		chatID = sent.Chat.ID
	}
	return chat.StatusHandle{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// EditText replaces the text of an existing message.
func (c *Client) EditText(ctx context.Context, handle chat.StatusHandle, text string, keyboard chat.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(handle.ChatID, handle.MessageID, text)
	if markup, ok := inlineMarkup(keyboard); ok {
		edit.ReplyMarkup = &markup
	}
	if _, err := c.withContext(ctx).Request(edit); err != nil {
		return fmt.Errorf("telegram: edit message %d: %w", handle.MessageID, err)
	}
	return nil
}

// UploadDocument sends a local file to the chat as a document.
func (c *Client) UploadDocument(ctx context.Context, chatID int64, path, caption string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("telegram: upload %s: %w", path, err)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := c.withContext(ctx).Send(doc); err != nil {
		return fmt.Errorf("telegram: upload document: %w", err)
	}
	return nil
}

// Download fetches the file behind fileID into dest, reporting cumulative
// progress. When total is not positive the response length is used instead.
// The returned count is the number of bytes written to dest.
func (c *Client) Download(ctx context.Context, fileID, dest string, total int64, onProgress chat.ProgressFunc) (int64, error) {
	file, err := c.withContext(ctx).GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return 0, fmt.Errorf("telegram: resolve file: %w", err)
	}
	if file.FilePath == "" {
		return 0, errors.New("telegram: file path missing from getFile response")
	}
	url := fmt.Sprintf(c.fileEndpoint, c.bot.Token, file.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("telegram: build download request: %w", err)
	}
	resp, err := c.base.Do(req)
	if err != nil {
		return 0, fmt.Errorf("telegram: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("telegram: download returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if total <= 0 {
		total = resp.ContentLength
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("telegram: create %s: %w", dest, err)
	}
	counter := &countingWriter{total: total, onProgress: onProgress}
	written, copyErr := io.Copy(io.MultiWriter(out, counter), resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return written, fmt.Errorf("telegram: download body: %w", copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("telegram: close %s: %w", dest, closeErr)
	}
	return written, nil
}

// Updates streams inbound video and command events until ctx is cancelled.
func (c *Client) Updates(ctx context.Context) (<-chan chat.Event, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = c.pollTimeout
	cfg.AllowedUpdates = []string{"message"}
	updates := c.bot.GetUpdatesChan(cfg)

	events := make(chan chat.Event)
	go func() {
		defer close(events)
		defer c.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				event, ok := eventFromMessage(update.Message)
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// withContext returns a shallow copy of the bot whose HTTP requests are bound
// to ctx so deadlines and cancellation abort in-flight API calls.
func (c *Client) withContext(ctx context.Context) *tgbotapi.BotAPI {
	bound := *c.bot
	bound.Client = contextClient{ctx: ctx, base: c.base}
	return &bound
}

type contextClient struct {
	ctx  context.Context
	base tgbotapi.HTTPClient
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.base.Do(req.WithContext(c.ctx))
}

type countingWriter struct {
	current    int64
	total      int64
	onProgress chat.ProgressFunc
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.current += int64(len(p))
	if w.onProgress != nil {
		w.onProgress(w.current, w.total)
	}
	return len(p), nil
}

func inlineMarkup(keyboard chat.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
		}
		if len(buttons) > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func eventFromMessage(msg *tgbotapi.Message) (chat.Event, bool) {
	if msg == nil || msg.Chat == nil {
		return chat.Event{}, false
	}
	var userID int64
	var firstName string
	if msg.From != nil {
		userID = msg.From.ID
		firstName = msg.From.FirstName
	}

	if msg.IsCommand() {
		return chat.Event{Command: &chat.CommandEvent{
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			UserID:    userID,
			FirstName: firstName,
			Command:   strings.ToLower(msg.Command()),
			Args:      strings.TrimSpace(msg.CommandArguments()),
		}}, true
	}

	if msg.Video == nil {
		return chat.Event{}, false
	}
	return chat.Event{Video: &chat.VideoEvent{
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
		UserID:       userID,
		FileID:       msg.Video.FileID,
		FileUniqueID: msg.Video.FileUniqueID,
		DeclaredSize: int64(msg.Video.FileSize),
		FileName:     msg.Video.FileName,
		Forwarded:    isForwarded(msg),
	}}, true
}

func isForwarded(msg *tgbotapi.Message) bool {
	return msg.ForwardDate != 0 || msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardSenderName != ""
}
