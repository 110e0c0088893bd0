package config

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxFetchedSTUNServers caps how many hosts from the online list are used.
const maxFetchedSTUNServers = 10

// FetchSTUNServers refreshes c.STUNServers from the online STUN host
// list. A server picked explicitly by the user is never replaced. Any
// fetch failure leaves the configured servers in place; the fetch is
// best-effort and the hardcoded defaults are always a valid fallback.
func (c *Config) FetchSTUNServers(ctx context.Context) {
	if c.STUNExplicit {
		slog.Debug("keeping user-selected STUN servers", "servers", c.STUNServers)
		return
	}

	servers, err := fetchSTUNList(ctx, c.STUNListURL)
	if err != nil {
		slog.Debug("STUN list fetch failed, using defaults", "error", err)
		return
	}
	if len(servers) > 0 {
		c.STUNServers = servers
		slog.Debug("loaded STUN servers", "count", len(servers))
	}
}

func fetchSTUNList(ctx context.Context, listURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var servers []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(servers) < maxFetchedSTUNServers {
		host := strings.TrimSpace(scanner.Text())
		if host == "" {
			continue
		}
		servers = append(servers, "stun:"+host)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}
