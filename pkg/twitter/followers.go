package twitter

import (
	"context"
	"fmt"

	"followgraph/pkg/account"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/retry"
)

// FetchFollowers returns every follower of id, merging all pages
func (c *Client) FetchFollowers(ctx context.Context, id account.Identifier) ([]account.Identifier, error) {
	return c.FetchIDs(ctx, Followers, id)
}

// FetchFriends returns every account id follows, merging all pages
func (c *Client) FetchFriends(ctx context.Context, id account.Identifier) ([]account.Identifier, error) {
	return c.FetchIDs(ctx, Friends, id)
}

// FetchIDs walks the cursored ids listing of rel for id. Each page request is
// metered by the governor and retried on transient failure. No partial list
// is returned on error.
func (c *Client) FetchIDs(ctx context.Context, rel Relation, id account.Identifier) ([]account.Identifier, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("fetch %s: %w", rel, account.ErrInvalidIdentifier)
	}
	base, err := c.cfg.Endpoints.ids(rel)
	if err != nil {
		return nil, err
	}

	var ids []int64
	cursor := StartCursor
	for pages := 1; ; pages++ {
		page, err := c.fetchPage(ctx, base, id, cursor)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page.IDs...)

		c.logger.DebugWithFields("fetched ids page", map[string]interface{}{
			"account":     id.String(),
			"relation":    string(rel),
			"page":        pages,
			"page_ids":    len(page.IDs),
			"total_ids":   len(ids),
			"next_cursor": page.NextCursor,
		})

		if page.NextCursor == 0 {
			break
		}
		if page.NextCursor == cursor {
			return nil, &errs.ClientError{
				URL: IDsURL(base, id, cursor, c.cfg.PageSize),
				Err: fmt.Errorf("cursor %d did not advance", cursor),
			}
		}
		cursor = page.NextCursor
	}

	return account.FromIDs(ids), nil
}

func (c *Client) fetchPage(ctx context.Context, base string, id account.Identifier, cursor int64) (*IDsPage, error) {
	rawURL := IDsURL(base, id, cursor, c.cfg.PageSize)

	page, err := retry.DoWithResult(func() (*IDsPage, error) {
		if err := c.meter(ctx); err != nil {
			return nil, err
		}
		var p IDsPage
		if err := c.getJSON(ctx, rawURL, true, id.String(), &p); err != nil {
			return nil, err
		}
		return &p, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, surface(rawURL, err)
	}
	return page, nil
}
