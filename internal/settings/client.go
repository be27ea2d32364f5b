package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"fleetcheck-backend/config"
)

// LegacyConfigKey is the settings entry holding the legacy checklist item
// descriptors.
const LegacyConfigKey = "obs_config"

const cacheKey = "settings:" + LegacyConfigKey

// LegacyItem is one legacy inspection item descriptor as stored in the
// remote settings source.
type LegacyItem struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Column         int    `json:"column"`
	Group          string `json:"group"`
	Position       int    `json:"position"`
	DefaultChecked bool   `json:"defaultChecked"`
}

// Source yields the legacy checklist item descriptors. An error or an empty
// result means the caller should use its built-in defaults.
type Source interface {
	LegacyItems(ctx context.Context) ([]LegacyItem, error)
}

// Client fetches settings entries over HTTP with a bounded timeout and a
// read-through TTL cache, so template resolution never blocks on a slow or
// dead settings service.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
	ttl     time.Duration
}

// NewClient creates a settings client from configuration.
func NewClient(cfg *config.SettingsConfig) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

// settingResponse models the settings service payload for a single key.
type settingResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// LegacyItems returns the remote legacy item descriptors, served from cache
// while fresh. Transport and decoding failures are returned to the caller,
// which is expected to degrade to its built-in list.
func (c *Client) LegacyItems(ctx context.Context) ([]LegacyItem, error) {
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]LegacyItem), nil
	}

	if c.baseURL == "" {
		return nil, fmt.Errorf("settings source not configured")
	}

	items, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, items, c.ttl)
	return items, nil
}

// Invalidate drops the cached entry so the next lookup refetches.
func (c *Client) Invalidate() {
	c.cache.Delete(cacheKey)
}

func (c *Client) fetch(ctx context.Context) ([]LegacyItem, error) {
	url := fmt.Sprintf("%s/api/settings/%s", c.baseURL, LegacyConfigKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build settings request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("settings source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings response: %w", err)
	}

	var setting settingResponse
	if err := json.Unmarshal(body, &setting); err != nil {
		return nil, fmt.Errorf("failed to decode settings response: %w", err)
	}

	var items []LegacyItem
	if len(setting.Value) > 0 {
		if err := json.Unmarshal(setting.Value, &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s value: %w", LegacyConfigKey, err)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("settings key %s is empty", LegacyConfigKey)
	}

	log.Printf("Loaded %d legacy checklist items from settings source", len(items))
	return items, nil
}
