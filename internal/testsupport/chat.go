package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"

	"streamstrip/internal/chat"
)

// SentMessage captures one SendText call.
type SentMessage struct {
	ChatID   int64
	ReplyTo  int
	Text     string
	Keyboard chat.Keyboard
	Handle   chat.StatusHandle
}

// Edit captures one EditText call.
type Edit struct {
	Handle chat.StatusHandle
	Text   string
}

// Upload captures one UploadDocument call.
type Upload struct {
	ChatID  int64
	Path    string
	Caption string
	Size    int64
}

// FakeChat is an in-memory chat.Client.
type FakeChat struct {
	// DownloadBytes is how many bytes Download writes; negative writes nothing.
	DownloadBytes int64
	DownloadErr   error
	// DownloadBlocks makes Download wait for ctx to end.
	DownloadBlocks bool
	UploadErr      error
	SendErr        error
	EditErr        error
	// Inbound is replayed by Updates.
	Inbound []chat.Event

	mu      sync.Mutex
	nextID  int
	sent    []SentMessage
	edits   []Edit
	uploads []Upload
}

func (f *FakeChat) SendText(_ context.Context, chatID int64, replyTo int, text string, keyboard chat.Keyboard) (chat.StatusHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return chat.StatusHandle{}, f.SendErr
	}
	f.nextID++
	handle := chat.StatusHandle{ChatID: chatID, MessageID: 1000 + f.nextID}
	f.sent = append(f.sent, SentMessage{ChatID: chatID, ReplyTo: replyTo, Text: text, Keyboard: keyboard, Handle: handle})
	return handle, nil
}

func (f *FakeChat) EditText(_ context.Context, handle chat.StatusHandle, text string, _ chat.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, Edit{Handle: handle, Text: text})
	return f.EditErr
}

func (f *FakeChat) Download(ctx context.Context, _ string, dest string, total int64, onProgress chat.ProgressFunc) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.DownloadBlocks {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.DownloadErr != nil {
		return 0, f.DownloadErr
	}
	if f.DownloadBytes < 0 {
		return 0, nil
	}
	file, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	if err := file.Truncate(f.DownloadBytes); err != nil {
		return 0, err
	}
	if onProgress != nil {
		onProgress(f.DownloadBytes/2, total)
		onProgress(f.DownloadBytes, total)
	}
	return f.DownloadBytes, nil
}

func (f *FakeChat) UploadDocument(_ context.Context, chatID int64, path, caption string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.uploads = append(f.uploads, Upload{ChatID: chatID, Path: path, Caption: caption, Size: info.Size()})
	return nil
}

func (f *FakeChat) Updates(ctx context.Context) (<-chan chat.Event, error) {
	events := make(chan chat.Event)
	go func() {
		defer close(events)
		for _, ev := range f.Inbound {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// Sent returns a copy of all sent messages.
func (f *FakeChat) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// Edits returns a copy of all status edits.
func (f *FakeChat) Edits() []Edit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Edit(nil), f.edits...)
}

// LastEdit returns the most recent edit text, or "" when none happened.
func (f *FakeChat) LastEdit() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1].Text
}

// Uploads returns a copy of all uploads.
func (f *FakeChat) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

var _ chat.Client = (*FakeChat)(nil)
