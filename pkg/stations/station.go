package stations

import "github.com/google/uuid"

// Station describes a named streaming audio source. The URL may point
// directly at an audio stream or at a playlist (.pls/.m3u) that references
// one; resolution is the tuner's job. A Station value is immutable once
// created, edits produce a new value sharing the same ID.
type Station struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Genre   string `json:"genre,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// New creates a station with a fresh unique ID.
func New(name, url, genre string) Station {
	return Station{
		ID:    uuid.NewString(),
		Name:  name,
		URL:   url,
		Genre: genre,
	}
}

// WithName returns a copy with the display name replaced.
func (s Station) WithName(name string) Station {
	s.Name = name
	return s
}

// WithURL returns a copy with the stream URL replaced.
func (s Station) WithURL(url string) Station {
	s.URL = url
	return s
}

// Defaults returns the built-in station set for first-run seeding. IDs are
// generated per call; default identity is tracked by URL.
func Defaults() []Station {
	return []Station{
		New("Groove Salad", "https://somafm.com/groovesalad.pls", "ambient"),
		New("Drone Zone", "https://somafm.com/dronezone.pls", "ambient"),
		New("Secret Agent", "https://somafm.com/secretagent.pls", "lounge"),
		New("DEF CON Radio", "https://somafm.com/defcon.pls", "electronic"),
	}
}
