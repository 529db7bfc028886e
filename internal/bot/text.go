package bot

import (
	"fmt"
	"strings"

	"streamstrip/internal/records"
	"streamstrip/internal/textutil"
)

const (
	textQueued      = "Queued behind other videos. Processing will start shortly."
	textAddUsage    = "Usage: /add <link>"
	textInvalidLink = "That doesn't look like an http(s) link."
	textStoreFailed = "Sorry, your links are unavailable right now."
	textNoLinks     = "You have no saved links. Use /add <link> to save one."
)

func welcomeText(ownerURL string) string {
	var b strings.Builder
	b.WriteString("Hello! I am the Stream Remover Bot.\n\n")
	b.WriteString("I can help you remove audio and subtitles from video files.\n\n")
	b.WriteString("To use me, simply forward a video to this chat, and I will process it for you.")
	if ownerURL != "" {
		fmt.Fprintf(&b, "\n\nOwner: [%s](%s)", ownerHandle(ownerURL), ownerURL)
	}
	return b.String()
}

// ownerHandle turns https://t.me/name into @name for display.
func ownerHandle(ownerURL string) string {
	trimmed := strings.TrimRight(ownerURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return "@" + trimmed[i+1:]
	}
	return ownerURL
}

func formatLinks(links []records.Link) string {
	if len(links) == 0 {
		return textNoLinks
	}
	var b strings.Builder
	b.WriteString("Your links:")
	for i, link := range links {
		fmt.Fprintf(&b, "\n%d. %s", i+1, link.URL)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	return textutil.Ternary(n == 1, one, many)
}
