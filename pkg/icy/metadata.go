// Package icy turns demultiplexed inline stream metadata into display
// titles. Byte-level ICY framing is the stream reader's job; this package
// consumes the field map it produces.
package icy

import "strings"

// Metadata field keys, in lookup order.
const (
	FieldStreamTitle = "StreamTitle"
	FieldTitle       = "Title"
)

// Title extracts a display title from a metadata field map: StreamTitle
// first, then Title, trimmed. Returns "" when neither carries anything.
func Title(fields map[string]string) string {
	if t := strings.TrimSpace(fields[FieldStreamTitle]); t != "" {
		return t
	}
	return strings.TrimSpace(fields[FieldTitle])
}

// Ingester tracks the last emitted title so the repeats that arrive every
// few seconds on a live stream collapse into a single notification.
// The zero value is ready to use.
type Ingester struct {
	last string
}

// Ingest returns the current title and whether it changed since the last
// call. Callers notify observers only on change.
func (i *Ingester) Ingest(fields map[string]string) (string, bool) {
	title := Title(fields)
	if title == i.last {
		return title, false
	}
	i.last = title
	return title, true
}

// Reset forgets the last emitted title ahead of a new session, so a title
// carried over from the previous station still counts as a change.
func (i *Ingester) Reset() {
	i.last = ""
}

// ParseFields parses raw inline metadata text of the form
// "StreamTitle='Artist - Song';StreamUrl='';" into a field map. Values keep
// their content with surrounding single quotes stripped.
func ParseFields(meta string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(meta, ";") {
		part = strings.TrimSpace(strings.TrimRight(part, "\x00"))
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		value = strings.TrimPrefix(value, "'")
		value = strings.TrimSuffix(value, "'")
		if key != "" {
			fields[key] = value
		}
	}
	return fields
}
