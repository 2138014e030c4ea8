// Package compose turns loosely-structured campaign descriptions into
// channel classifications and message fields. The description encodes
// per-channel fields as "Key: value" lines; there is no structured
// per-channel schema upstream, so parsing is deliberately forgiving.
package compose

import (
	"strings"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

// channelMarkers in priority order: the first marker found in the
// description wins.
var channelMarkers = []struct {
	marker  string
	channel domain.Channel
}{
	{"whatsapp", domain.ChannelWhatsapp},
	{"email", domain.ChannelEmail},
	{"call", domain.ChannelCall},
}

// DetectChannel classifies a campaign's channel by scanning the
// description for a case-insensitive marker. ChannelNone means the
// campaign is excluded from dispatch.
func DetectChannel(description string) domain.Channel {
	lowered := strings.ToLower(description)
	for _, m := range channelMarkers {
		if strings.Contains(lowered, m.marker) {
			return m.channel
		}
	}
	return domain.ChannelNone
}

// Message holds the composed fields for one campaign. Missing fields
// are empty strings; the channel provider tolerates them.
type Message struct {
	Subject string
	Body    string
}

// Build extracts the message fields for the campaign once per run.
// It never fails: a malformed description composes to empty fields.
func Build(description string) Message {
	return Message{
		Subject: Field(description, "subject"),
		Body:    Field(description, "body"),
	}
}

// Field returns the trimmed value of the first "Key: value" line whose
// key matches case-insensitively, or "" when no line matches.
func Field(description, key string) string {
	key = strings.ToLower(key)
	for _, line := range strings.Split(description, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.ToLower(strings.TrimSpace(k)) != key {
			continue
		}
		return strings.TrimSpace(v)
	}
	return ""
}
