package chat

import (
	"context"
	"strconv"
)

// StatusHandle identifies an outbound message that is edited in place.
type StatusHandle struct {
	ChatID    int64
	MessageID int
}

// Key returns a stable map key for the handle.
func (h StatusHandle) Key() string {
	return strconv.FormatInt(h.ChatID, 10) + ":" + strconv.Itoa(h.MessageID)
}

// IsZero reports whether the handle was never assigned.
func (h StatusHandle) IsZero() bool {
	return h.ChatID == 0 && h.MessageID == 0
}

// Button is an inline keyboard button that opens a URL.
type Button struct {
	Text string
	URL  string
}

// Keyboard is a set of inline button rows attached to a message.
type Keyboard [][]Button

// SingleButton builds a one-row, one-button keyboard. An empty URL yields nil.
func SingleButton(text, url string) Keyboard {
	if url == "" {
		return nil
	}
	return Keyboard{{{Text: text, URL: url}}}
}

// ProgressFunc receives cumulative transferred bytes and the expected total.
type ProgressFunc func(current, total int64)

// VideoEvent is an inbound message carrying a video attachment.
type VideoEvent struct {
	ChatID       int64
	MessageID    int
	UserID       int64
	FileID       string
	FileUniqueID string
	DeclaredSize int64
	FileName     string
	Forwarded    bool
}

// CommandEvent is an inbound slash command.
type CommandEvent struct {
	ChatID    int64
	MessageID int
	UserID    int64
	FirstName string
	Command   string
	Args      string
}

// Event is one inbound update; exactly one of Video or Command is set.
type Event struct {
	Video   *VideoEvent
	Command *CommandEvent
}

// Messenger sends and edits text messages.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, replyTo int, text string, keyboard Keyboard) (StatusHandle, error)
	EditText(ctx context.Context, handle StatusHandle, text string, keyboard Keyboard) error
}

// Client is the full chat platform surface used by the bot.
type Client interface {
	Messenger
	Download(ctx context.Context, fileID, dest string, total int64, onProgress ProgressFunc) (int64, error)
	UploadDocument(ctx context.Context, chatID int64, path, caption string) error
	Updates(ctx context.Context) (<-chan Event, error)
}
