// Package playlist resolves .pls and .m3u playlist URLs to the direct stream
// URL they point at. Station directories frequently publish playlist files
// rather than raw stream endpoints.
package playlist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoStreamURL is returned when a playlist parses but contains no usable
// stream entry.
var ErrNoStreamURL = errors.New("no stream URL found in playlist")

const (
	fetchTimeout = 10 * time.Second

	// Playlist bodies are tiny; cap reads so a misidentified audio stream
	// cannot be slurped into memory.
	maxBodySize = 64 * 1024
)

// ParsePLS returns the first FileN entry of a PLS playlist.
func ParsePLS(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "File") {
			continue
		}
		_, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if u := strings.TrimSpace(value); u != "" {
			return u, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}

	return "", ErrNoStreamURL
}

// ParseM3U returns the first non-comment URL line of an M3U playlist.
func ParseM3U(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read playlist: %w", err)
	}

	return "", ErrNoStreamURL
}

// Resolve fetches url and, when it identifies as a playlist, returns the
// stream URL it references. A URL that already serves an ICY stream is
// returned unchanged. Anything else is an error; callers should fall back to
// the original URL if they consider resolution optional.
func Resolve(ctx context.Context, url string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	// A live ICY stream announces its metadata interval; nothing to resolve.
	if resp.Header.Get("icy-metaint") != "" {
		return url, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	content := string(body)

	contentType := resp.Header.Get("Content-Type")

	switch {
	case isPLS(url, contentType, content):
		return ParsePLS(strings.NewReader(content))
	case isM3U(url, contentType, content):
		return ParseM3U(strings.NewReader(content))
	}

	return "", fmt.Errorf("not a stream or playlist (Content-Type: %s)", contentType)
}

func isPLS(url, contentType, content string) bool {
	return strings.Contains(contentType, "audio/x-scpls") ||
		strings.Contains(contentType, "application/pls+xml") ||
		strings.HasSuffix(url, ".pls") ||
		strings.Contains(content, "[playlist]")
}

func isM3U(url, contentType, content string) bool {
	trimmed := strings.TrimSpace(content)

	return strings.Contains(contentType, "audio/mpegurl") ||
		strings.Contains(contentType, "application/vnd.apple.mpegurl") ||
		strings.HasSuffix(url, ".m3u") ||
		strings.HasSuffix(url, ".m3u8") ||
		strings.Contains(content, "#EXTM3U") ||
		strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://")
}
