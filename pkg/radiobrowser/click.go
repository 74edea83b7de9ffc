package radiobrowser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const clickPath = "/json/url/"

// CountClick reports a play of the given station to the directory, which uses
// clicks to rank stations. It walks the mirror list the same way Search does.
// Callers should treat a failure as advisory; playback does not depend on it.
func (c *Client) CountClick(ctx context.Context, stationUUID string) (*ClickResponse, error) {
	if strings.TrimSpace(stationUUID) == "" {
		return nil, fmt.Errorf("empty station uuid")
	}

	var lastErr error

	for _, mirror := range c.cfg.Mirrors {
		resp, err := c.clickMirror(ctx, mirror, stationUUID)
		if err != nil {
			c.logger.Warn("click failed", "mirror", mirror, "err", err)
			metricMirrorFailures.WithLabelValues(mirror).Inc()
			lastErr = err
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) clickMirror(ctx context.Context, mirror, stationUUID string) (*ClickResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := strings.TrimSuffix(mirror, "/") + clickPath + stationUUID

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, mirror)
	}

	var click ClickResponse
	if err := json.NewDecoder(resp.Body).Decode(&click); err != nil {
		return nil, fmt.Errorf("failed to decode click response: %w", err)
	}

	return &click, nil
}
