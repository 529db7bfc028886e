package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"streamstrip/internal/chat"
	"streamstrip/internal/records"
	"streamstrip/internal/textutil"
)

// State is a step of the per-job state machine.
type State string

const (
	StateCreated      State = "created"
	StateDownloading  State = "downloading"
	StateVerifying    State = "verifying"
	StateTransforming State = "transforming"
	StateUploading    State = "uploading"
	StatePersisting   State = "persisting"
	StateCleanup      State = "cleanup"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

var titleCaser = cases.Title(language.English)

// Label returns a human readable name for the state.
func (s State) Label() string {
	return titleCaser.String(string(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Job is one run of the transfer and transform pipeline for a single video.
// It is owned by the goroutine running Process.
type Job struct {
	ID           string
	SourceID     string
	FileUniqueID string
	FileName     string
	ChatID       int64
	UserID       int64
	ReplyTo      int

	SourcePath string
	OutputPath string

	ExpectedSize      int64
	DownloadedBytes   int64
	ProcessedSize     int64
	TransformDuration time.Duration

	StartedAt time.Time
	Status    chat.StatusHandle

	State State
	// FailedIn is the state the job was in when it failed.
	FailedIn State
	Err      error
	Record   *records.CompletionRecord

	history []State
}

func newJob(id string, event chat.VideoEvent, downloadsDir string, now time.Time) *Job {
	job := &Job{
		ID:           id,
		SourceID:     event.FileID,
		FileUniqueID: event.FileUniqueID,
		FileName:     event.FileName,
		ChatID:       event.ChatID,
		UserID:       event.UserID,
		ReplyTo:      event.MessageID,
		ExpectedSize: event.DeclaredSize,
		StartedAt:    now,
		State:        StateCreated,
		history:      []State{StateCreated},
	}
	job.SourcePath = filepath.Join(downloadsDir, sourceFileName(id, event))
	return job
}

// sourceFileName builds a per-job local name so concurrent jobs for the same
// video never share a file.
func sourceFileName(jobID string, event chat.VideoEvent) string {
	token := event.FileUniqueID
	if token == "" {
		token = event.FileID
	}
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	ext := strings.ToLower(filepath.Ext(event.FileName))
	if ext == "" || len(ext) > 6 || textutil.SanitizeToken(ext[1:]) != ext[1:] {
		ext = ".mp4"
	}
	return textutil.SanitizeToken(token) + "_" + textutil.SanitizeToken(short) + ext
}

func (j *Job) transition(next State) {
	j.State = next
	j.history = append(j.history, next)
}

// History returns the states the job passed through, in order.
func (j *Job) History() []State {
	return append([]State(nil), j.history...)
}

// Succeeded reports whether the job reached StateDone.
func (j *Job) Succeeded() bool {
	return j.State == StateDone
}
