// Package playlist resolves indirect playlist references (PLS, M3U, M3U8)
// into directly playable stream URLs.
//
// Internet radio directories commonly hand out a small text playlist instead
// of the stream itself. Resolve fetches the URL, decides whether the response
// is already a stream, and otherwise parses the body for the first stream URL
// it references. Multi-entry playlists (for example multi-bitrate PLS) always
// resolve to the first matching entry.
package playlist

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoStreamURL indicates the body was fetched but contained no
	// playable stream URL.
	ErrNoStreamURL = errors.New("no stream URL found in playlist")

	// ErrTimeout indicates the fetch did not complete within the resolver
	// timeout.
	ErrTimeout = errors.New("playlist fetch timed out")
)

const (
	// DefaultTimeout bounds the whole resolution, connect included.
	DefaultTimeout = 10 * time.Second

	// Playlists are tiny; anything beyond this is not a playlist.
	maxPlaylistBytes = 256 * 1024

	userAgent = "iTunes/12.9.2 (Macintosh; OS X 10.14.3) AppleWebKit/606.4.5"
)

// Resolver fetches and parses playlist URLs.
type Resolver struct {
	client  *http.Client
	timeout time.Duration
}

// NewResolver returns a Resolver bounded by the given timeout, or
// DefaultTimeout when zero.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{Dial: dialer.Dial}

	return &Resolver{
		client:  &http.Client{Transport: transport},
		timeout: timeout,
	}
}

// Resolve returns a directly playable stream URL for url. If the URL already
// serves audio the input is returned unchanged. A fetch error, timeout, or a
// playlist with no usable entry returns an error; timeouts satisfy
// errors.Is(err, ErrTimeout) and empty playlists errors.Is(err, ErrNoStreamURL).
func (r *Resolver) Resolve(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Add("accept", "*/*")
	req.Header.Add("user-agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", errors.Wrap(err, "failed to fetch URL")
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	// An icy-metaint header or an audio content type means the URL already
	// serves a stream; don't consume the body.
	if resp.Header.Get("icy-metaint") != "" || isAudioContentType(contentType) {
		return url, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", errors.Wrap(err, "failed to read playlist body")
	}
	content := string(data)

	if isPLS(url, contentType, content) {
		return ParsePLS(content)
	}
	return ParseM3U(content)
}

// ParsePLS returns the first FileN= entry of a PLS playlist. Key matching is
// case-insensitive.
func ParsePLS(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if len(key) < 4 || !strings.EqualFold(key[:4], "file") {
			continue
		}
		if url := strings.TrimSpace(line[eq+1:]); url != "" {
			return url, nil
		}
	}
	return "", errors.Wrap(ErrNoStreamURL, "pls")
}

// ParseM3U returns the first bare http(s) URL line of an M3U/M3U8 playlist,
// skipping blank lines and # comments.
func ParseM3U(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	return "", errors.Wrap(ErrNoStreamURL, "m3u")
}

func isPLS(url, contentType, content string) bool {
	return strings.Contains(contentType, "audio/x-scpls") ||
		strings.Contains(contentType, "application/pls+xml") ||
		strings.HasSuffix(url, ".pls") ||
		strings.Contains(content, "[playlist]")
}

func isAudioContentType(contentType string) bool {
	if !strings.HasPrefix(contentType, "audio/") {
		return false
	}
	// Playlist formats ship under audio/* too.
	switch {
	case strings.Contains(contentType, "audio/x-scpls"),
		strings.Contains(contentType, "audio/mpegurl"),
		strings.Contains(contentType, "audio/x-mpegurl"):
		return false
	}
	return true
}
