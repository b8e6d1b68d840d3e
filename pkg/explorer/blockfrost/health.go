package blockfrost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

func (b *blockfrost) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.baseURL)
	status, resp, err := b.client.NewHTTPRequest(
		ctx, http.MethodGet, url, "", b.header(),
	)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return parseError(status, resp)
	}

	var health struct {
		IsHealthy bool `json:"is_healthy"`
	}
	if err := json.Unmarshal([]byte(resp), &health); err != nil {
		return err
	}
	if !health.IsHealthy {
		return fmt.Errorf("blockfrost: backend reports unhealthy")
	}
	return nil
}
