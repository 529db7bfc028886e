package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"streamstrip/internal/chat"
)

const testToken = "123:abc"

type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []string
	forms   map[string]map[string]string
	payload []byte
}

func newFakeBotAPI(t *testing.T, payload []byte) (*fakeBotAPI, *httptest.Server) {
	t.Helper()
	f := &fakeBotAPI{forms: map[string]map[string]string{}, payload: payload}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		_, _ = w.Write(f.payload)
		return
	}
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	form := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
			for k := range r.MultipartForm.File {
				form[k] = "<file>"
			}
		}
	} else {
		_ = r.ParseForm()
		for k, v := range r.PostForm {
			form[k] = v[0]
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.forms[method] = form
	f.mu.Unlock()

	var result any
	switch method {
	case "getMe":
		result = map[string]any{"id": 1, "is_bot": true, "first_name": "strip", "username": "strip_bot"}
	case "getFile":
		result = map[string]any{"file_id": form["file_id"], "file_unique_id": "u1", "file_path": "videos/file_1.mp4"}
	case "sendMessage", "sendDocument":
		result = map[string]any{"message_id": 42, "date": 0, "chat": map[string]any{"id": 99, "type": "private"}}
	case "editMessageText":
		result = true
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 404, "description": "Not Found"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeBotAPI) form(method string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[method]
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := New(Options{
		Token:        testToken,
		APIEndpoint:  srv.URL + "/bot%s/%s",
		FileEndpoint: srv.URL + "/file/bot%s/%s",
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestDownloadReportsProgress(t *testing.T) {
	payload := []byte(strings.Repeat("v", 64*1024))
	_, srv := newFakeBotAPI(t, payload)
	client := newTestClient(t, srv)
	if client.Username() != "strip_bot" {
		t.Fatalf("Username = %q", client.Username())
	}

	dest := filepath.Join(t.TempDir(), "in.mp4")
	var last, lastTotal int64
	calls := 0
	n, err := client.Download(context.Background(), "file_1", dest, int64(len(payload)), func(current, total int64) {
		calls++
		if current < last {
			t.Errorf("progress went backwards: %d < %d", current, last)
		}
		last, lastTotal = current, total
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("written = %d, want %d", n, len(payload))
	}
	if calls == 0 || last != n || lastTotal != int64(len(payload)) {
		t.Fatalf("progress calls=%d last=%d total=%d", calls, last, lastTotal)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() != n {
		t.Fatalf("dest size mismatch: %v %v", info, err)
	}
}

func TestDownloadHonoursCancellation(t *testing.T) {
	_, srv := newFakeBotAPI(t, []byte("data"))
	client := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Download(ctx, "file_1", filepath.Join(t.TempDir(), "x"), 4, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSendAndEditText(t *testing.T) {
	fake, srv := newFakeBotAPI(t, nil)
	client := newTestClient(t, srv)
	ctx := context.Background()

	handle, err := client.SendText(ctx, 99, 7, "Processing video...", chat.SingleButton("Owner", "https://t.me/owner"))
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if handle != (chat.StatusHandle{ChatID: 99, MessageID: 42}) {
		t.Fatalf("handle = %+v", handle)
	}
	form := fake.form("sendMessage")
	if form["reply_to_message_id"] != "7" || form["text"] != "Processing video..." {
		t.Fatalf("unexpected sendMessage form: %v", form)
	}
	if !strings.Contains(form["reply_markup"], "https://t.me/owner") {
		t.Fatalf("missing keyboard: %v", form)
	}

	if err := client.EditText(ctx, handle, "Processing complete.", nil); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	if got := fake.form("editMessageText"); got["message_id"] != "42" || got["text"] != "Processing complete." {
		t.Fatalf("unexpected edit form: %v", got)
	}
}

func TestUploadDocument(t *testing.T) {
	fake, srv := newFakeBotAPI(t, nil)
	client := newTestClient(t, srv)
	path := filepath.Join(t.TempDir(), "processed_x.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := client.UploadDocument(context.Background(), 99, path, "Processed video"); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	form := fake.form("sendDocument")
	if form["caption"] != "Processed video" || form["document"] != "<file>" {
		t.Fatalf("unexpected sendDocument form: %v", form)
	}
	if err := client.UploadDocument(context.Background(), 99, filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEventFromMessage(t *testing.T) {
	video := &tgbotapi.Message{
		MessageID:   5,
		Chat:        &tgbotapi.Chat{ID: 10},
		From:        &tgbotapi.User{ID: 77, FirstName: "Ada"},
		ForwardDate: 1700000000,
		Video:       &tgbotapi.Video{FileID: "f", FileUniqueID: "u", FileSize: 1048576, FileName: "clip.mp4"},
	}
	event, ok := eventFromMessage(video)
	if !ok || event.Video == nil {
		t.Fatalf("expected video event, got %+v", event)
	}
	want := chat.VideoEvent{ChatID: 10, MessageID: 5, UserID: 77, FileID: "f", FileUniqueID: "u", DeclaredSize: 1048576, FileName: "clip.mp4", Forwarded: true}
	if *event.Video != want {
		t.Fatalf("video = %+v, want %+v", *event.Video, want)
	}

	video.ForwardDate = 0
	event, _ = eventFromMessage(video)
	if event.Video.Forwarded {
		t.Fatal("non-forwarded video flagged as forwarded")
	}

	cmd := &tgbotapi.Message{
		MessageID: 6,
		Chat:      &tgbotapi.Chat{ID: 10},
		From:      &tgbotapi.User{ID: 77},
		Text:      "/add https://example.com",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 4}},
	}
	event, ok = eventFromMessage(cmd)
	if !ok || event.Command == nil {
		t.Fatalf("expected command event, got %+v", event)
	}
	if event.Command.Command != "add" || event.Command.Args != "https://example.com" {
		t.Fatalf("command = %+v", event.Command)
	}

	if _, ok := eventFromMessage(&tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hello"}); ok {
		t.Fatal("plain text should not produce an event")
	}
	if _, ok := eventFromMessage(nil); ok {
		t.Fatal("nil message should not produce an event")
	}
}

var _ io.Writer = (*countingWriter)(nil)
