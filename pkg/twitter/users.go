package twitter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"followgraph/pkg/account"
	"followgraph/pkg/retry"
)

// LookupUser fetches the profile of id through users/show. Successful
// lookups are cached for the life of the client, so repeated lookups of the
// same account cost no request budget.
func (c *Client) LookupUser(ctx context.Context, id account.Identifier) (*User, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("lookup user: %w", account.ErrInvalidIdentifier)
	}
	key := userCacheKey(id)
	if user, ok := c.users.Get(key); ok {
		return user, nil
	}
	rawURL := UsersShowURL(c.cfg.Endpoints.UsersShow, id)

	user, err := retry.DoWithResult(func() (*User, error) {
		// users/show has its own window, but lookups are rare and spend the
		// single tracked budget anyway; the next ids response corrects it.
		if err := c.meter(ctx); err != nil {
			return nil, err
		}
		var u User
		if err := c.getJSON(ctx, rawURL, false, id.String(), &u); err != nil {
			return nil, err
		}
		return &u, nil
	}, c.retryConfig(ctx))
	if err != nil {
		return nil, surface(rawURL, err)
	}

	if user.ID == 0 && user.IDStr != "" {
		if n, perr := strconv.ParseInt(user.IDStr, 10, 64); perr == nil {
			user.ID = n
		}
	}
	c.users.Add(key, user)
	if user.ID > 0 {
		c.users.Add(userCacheKey(account.ID(user.ID)), user)
	}
	if user.ScreenName != "" {
		c.users.Add(userCacheKey(account.ScreenName(user.ScreenName)), user)
	}
	return user, nil
}

// userCacheKey keys screen names case-insensitively, as the API matches them
func userCacheKey(id account.Identifier) string {
	if name, ok := id.Name(); ok {
		return "@" + strings.ToLower(name)
	}
	return id.String()
}

// Resolve maps a screen name to its numeric id. Numeric identifiers are
// returned unchanged without a request.
func (c *Client) Resolve(ctx context.Context, id account.Identifier) (account.Identifier, error) {
	if id.Kind() == account.KindID {
		return id, nil
	}

	user, err := c.LookupUser(ctx, id)
	if err != nil {
		return account.Identifier{}, err
	}
	if user.ID <= 0 {
		return account.Identifier{}, fmt.Errorf("users/show returned no id for %s", id)
	}

	c.logger.DebugWithFields("resolved screen name", map[string]interface{}{
		"screen_name": user.ScreenName,
		"id":          user.ID,
	})
	return account.ID(user.ID), nil
}
