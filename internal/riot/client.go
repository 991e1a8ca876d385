// Package riot provides a minimal client for the Riot account-v1 and
// match-v5 APIs, rate-limited to stay inside the development key budget.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// MatchPageSize is the maximum match-id page the API serves per request.
const MatchPageSize = 100

// Routing regions for the regional (match-v5 / account-v1) hosts.
var routingHosts = map[string]string{
	"europe":   "https://europe.api.riotgames.com",
	"americas": "https://americas.api.riotgames.com",
	"asia":     "https://asia.api.riotgames.com",
	"sea":      "https://sea.api.riotgames.com",
}

// Client is a minimal Riot API client bound to one routing region.
type Client struct {
	apiKey  string
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client for the given routing region ("europe",
// "americas", "asia", "sea"), throttled to rps requests per second with the
// given burst.
func NewClient(apiKey, routing string, rps float64, burst int) (*Client, error) {
	base, ok := routingHosts[routing]
	if !ok {
		return nil, fmt.Errorf("unknown routing region %q", routing)
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiKey:  apiKey,
		base:    base,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Account holds the fields we need from the account-v1 endpoint.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// get performs a rate-limited, authenticated GET against the Riot API and
// JSON-decodes the response body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AccountByRiotID resolves a riot id (game name + tag line) to an account.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	var a Account
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(gameName), url.PathEscape(tagLine))
	if err := c.get(ctx, path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// MatchIDs returns one page of a player's match ids, most recent first.
func (c *Client) MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	var ids []string
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		url.PathEscape(puuid), start, count)
	if err := c.get(ctx, path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AllMatchIDs pages through a player's entire match history, MatchPageSize
// ids at a time, until the API returns an empty page.
func (c *Client) AllMatchIDs(ctx context.Context, puuid string) ([]string, error) {
	var all []string
	for start := 0; ; start += MatchPageSize {
		page, err := c.MatchIDs(ctx, puuid, start, MatchPageSize)
		if err != nil {
			return nil, fmt.Errorf("match ids at offset %d: %w", start, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
	}
}

// Match fetches one raw match payload. The body is returned verbatim so it
// can be archived and re-flattened later without another fetch.
func (c *Client) Match(ctx context.Context, matchID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
