package twitter

import (
	"context"
	"fmt"
	"time"

	"followgraph/pkg/ratelimit"
)

// Probe reports the remaining budget of the configured relation's ids
// endpoint. It is not metered; the governor calls it when its own count is
// exhausted or unknown.
func (c *Client) Probe(ctx context.Context) (ratelimit.Quota, error) {
	rel := c.cfg.Relation
	rawURL := RateLimitStatusURL(c.cfg.Endpoints.RateLimitStatus, rel)

	var status RateLimitStatus
	if err := c.getJSON(ctx, rawURL, false, "", &status); err != nil {
		return ratelimit.Quota{}, surface(rawURL, err)
	}

	entry, ok := status.Resources[rel.Resource()][rel.Endpoint()]
	if !ok {
		return ratelimit.Quota{}, fmt.Errorf("rate limit status has no entry for %s", rel.Endpoint())
	}

	c.logger.DebugWithFields("rate limit status", map[string]interface{}{
		"endpoint":  rel.Endpoint(),
		"limit":     entry.Limit,
		"remaining": entry.Remaining,
		"reset":     entry.Reset,
	})

	return ratelimit.Quota{
		Remaining: entry.Remaining,
		ResetAt:   time.Unix(entry.Reset, 0),
	}, nil
}
