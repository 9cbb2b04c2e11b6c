package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// fetchAddonSlug asks the Supervisor for this add-on's slug.
func fetchAddonSlug(ctx context.Context, hc *http.Client, url, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("addon info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("addon info: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Slug string `json:"slug"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("addon info: %w", err)
	}
	if body.Data.Slug == "" {
		return "", fmt.Errorf("addon info: empty slug")
	}
	return body.Data.Slug, nil
}
