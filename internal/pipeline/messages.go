package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"streamstrip/internal/services"
	"streamstrip/internal/textutil"
	"streamstrip/internal/transform"
)

const (
	textStarting     = "Processing video..."
	textTransforming = "Removing audio and subtitle streams..."
	textUploading    = "Uploading processed video..."
	textComplete     = "Processing complete."
	textIncomplete   = "Download failed or file is incomplete."

	// Telegram rejects messages over 4096 characters.
	maxStatusText = 3800
)

func captionFor(size int64, elapsed time.Duration) string {
	return fmt.Sprintf("Processed video\nSize: %s\nProcessing Time: %s",
		textutil.FormatSize(float64(size)),
		textutil.FormatDuration(elapsed.Seconds()),
	)
}

// userMessage maps a job failure onto the status text shown in the chat.
func userMessage(job *Job, err error) string {
	var text string
	switch services.KindOf(err) {
	case services.KindIncompleteTransfer:
		text = textIncomplete
	case services.KindTransformFailure:
		var exitErr *transform.ExitError
		if errors.As(err, &exitErr) {
			text = "Error processing video with FFmpeg: " + exitErr.Diagnostic
		} else {
			text = "Error processing video: " + err.Error()
		}
	case services.KindTimeout:
		text = fmt.Sprintf("%s timed out. Please try again later.", job.FailedIn.Label())
	case services.KindInsufficientSpace:
		text = "Not enough disk space to process this video right now."
	case services.KindTransferLayer:
		text = "Transfer failed: " + err.Error()
	default:
		text = "An error occurred: " + err.Error()
	}
	return textutil.TruncateTail(strings.TrimSpace(text), maxStatusText)
}
