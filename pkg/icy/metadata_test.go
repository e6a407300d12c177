package icy

import (
	"reflect"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			name:   "stream title",
			fields: map[string]string{"StreamTitle": "Artist - Song"},
			want:   "Artist - Song",
		},
		{
			name:   "fallback to title",
			fields: map[string]string{"Title": "Some Show"},
			want:   "Some Show",
		},
		{
			name:   "primary wins over fallback",
			fields: map[string]string{"StreamTitle": "Artist - Song", "Title": "Some Show"},
			want:   "Artist - Song",
		},
		{
			name:   "whitespace trimmed",
			fields: map[string]string{"StreamTitle": "  Artist - Song  "},
			want:   "Artist - Song",
		},
		{
			name:   "blank primary falls through",
			fields: map[string]string{"StreamTitle": "   ", "Title": "Some Show"},
			want:   "Some Show",
		},
		{
			name:   "nothing usable",
			fields: map[string]string{"StreamUrl": "http://x.example"},
			want:   "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title(tc.fields); got != tc.want {
				t.Errorf("Title = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIngesterSuppressesRepeats(t *testing.T) {
	var i Ingester

	title, changed := i.Ingest(map[string]string{"StreamTitle": "Artist - Song"})
	if !changed || title != "Artist - Song" {
		t.Fatalf("first ingest = (%q, %v), want (Artist - Song, true)", title, changed)
	}

	// The same title arrives every few seconds on a live stream.
	if _, changed = i.Ingest(map[string]string{"StreamTitle": "Artist - Song"}); changed {
		t.Error("identical ingest reported a change")
	}

	title, changed = i.Ingest(map[string]string{"StreamTitle": "Artist - Next Song"})
	if !changed || title != "Artist - Next Song" {
		t.Fatalf("differing ingest = (%q, %v), want (Artist - Next Song, true)", title, changed)
	}
}

func TestIngesterReset(t *testing.T) {
	var i Ingester

	i.Ingest(map[string]string{"StreamTitle": "Artist - Song"})
	i.Reset()

	if _, changed := i.Ingest(map[string]string{"StreamTitle": "Artist - Song"}); !changed {
		t.Error("ingest after Reset did not report a change")
	}
}

func TestParseFields(t *testing.T) {
	got := ParseFields("StreamTitle='Artist - Song';StreamUrl='http://x.example';")
	want := map[string]string{
		"StreamTitle": "Artist - Song",
		"StreamUrl":   "http://x.example",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFields = %#v, want %#v", got, want)
	}
}

func TestParseFieldsPadding(t *testing.T) {
	// Metadata blocks are padded to 16-byte boundaries with NULs.
	got := ParseFields("StreamTitle='Artist - Song';\x00\x00\x00")
	if got["StreamTitle"] != "Artist - Song" {
		t.Errorf("StreamTitle = %q, want %q", got["StreamTitle"], "Artist - Song")
	}
}
