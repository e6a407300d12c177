package playlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestParsePLS(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "single entry",
			content: "[playlist]\nFile1=http://a.example/stream",
			want:    "http://a.example/stream",
		},
		{
			name:    "first of multiple entries wins",
			content: "[playlist]\nNumberOfEntries=2\nFile1=http://a.example/128\nFile2=http://a.example/320",
			want:    "http://a.example/128",
		},
		{
			name:    "case insensitive key",
			content: "[playlist]\nfile1=http://a.example/stream",
			want:    "http://a.example/stream",
		},
		{
			name:    "whitespace around entry",
			content: "[playlist]\n  File1 =  http://a.example/stream  \n",
			want:    "http://a.example/stream",
		},
		{
			name:    "title lines are not entries",
			content: "[playlist]\nTitle1=Groove Salad\nLength1=-1",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePLS(tc.content)
			if tc.wantErr {
				if !errors.Is(err, ErrNoStreamURL) {
					t.Fatalf("ParsePLS error = %v, want ErrNoStreamURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePLS returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParsePLS = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseM3U(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "comments then url",
			content: "#EXTM3U\n#c\nhttp://b.example/stream",
			want:    "http://b.example/stream",
		},
		{
			name:    "https url",
			content: "\n\nhttps://b.example/stream\n",
			want:    "https://b.example/stream",
		},
		{
			name:    "first url wins",
			content: "http://b.example/one\nhttp://b.example/two",
			want:    "http://b.example/one",
		},
		{
			name:    "comments only",
			content: "#EXTM3U\n#EXTINF:-1,Some Station\n",
			wantErr: true,
		},
		{
			name:    "relative path is not a candidate",
			content: "tracks/one.mp3\n",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseM3U(tc.content)
			if tc.wantErr {
				if !errors.Is(err, ErrNoStreamURL) {
					t.Fatalf("ParseM3U error = %v, want ErrNoStreamURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseM3U returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseM3U = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolvePLS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/x-scpls")
		_, _ = w.Write([]byte("[playlist]\nFile1=http://a.example/stream\n"))
	}))
	defer srv.Close()

	got, err := NewResolver(0).Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "http://a.example/stream" {
		t.Errorf("Resolve = %q, want %q", got, "http://a.example/stream")
	}
}

func TestResolveM3U(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpegurl")
		_, _ = w.Write([]byte("#EXTM3U\nhttp://b.example/stream\n"))
	}))
	defer srv.Close()

	got, err := NewResolver(0).Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "http://b.example/stream" {
		t.Errorf("Resolve = %q, want %q", got, "http://b.example/stream")
	}
}

func TestResolveDirectStreamIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("icy-metaint", "16000")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got, err := NewResolver(0).Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != srv.URL {
		t.Errorf("Resolve = %q, want input URL %q", got, srv.URL)
	}
}

func TestResolveAudioContentTypeIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got, err := NewResolver(0).Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != srv.URL {
		t.Errorf("Resolve = %q, want input URL %q", got, srv.URL)
	}
}

func TestResolveNoCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not a playlist</html>"))
	}))
	defer srv.Close()

	_, err := NewResolver(0).Resolve(context.Background(), srv.URL)
	if !errors.Is(err, ErrNoStreamURL) {
		t.Fatalf("Resolve error = %v, want ErrNoStreamURL", err)
	}
}

func TestResolveTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewResolver(50 * time.Millisecond).Resolve(context.Background(), srv.URL)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Resolve error = %v, want ErrTimeout", err)
	}
}

func TestResolveNetworkFailure(t *testing.T) {
	_, err := NewResolver(time.Second).Resolve(context.Background(), "http://127.0.0.1:1/stream.pls")
	if err == nil {
		t.Fatal("Resolve expected error for unreachable host")
	}
	if errors.Is(err, ErrNoStreamURL) || errors.Is(err, ErrTimeout) {
		t.Fatalf("Resolve error = %v, want plain network failure", err)
	}
}
