package twitter

import (
	"fmt"
	"net/url"
	"strconv"

	"followgraph/pkg/account"
)

const (
	// BaseURL is the root of the REST API
	BaseURL = "https://api.twitter.com"

	// DefaultPageSize is the largest page followers/ids and friends/ids return
	DefaultPageSize = 5000

	// StartCursor requests the first page of a cursored listing
	StartCursor int64 = -1
)

// Relation selects which listing a traversal expands.
type Relation string

const (
	Followers Relation = "followers"
	Friends   Relation = "friends"
)

// Resource is the rate_limit_status resource family of the relation
func (r Relation) Resource() string {
	return string(r)
}

// Endpoint is the rate_limit_status key of the relation's ids listing
func (r Relation) Endpoint() string {
	return "/" + string(r) + "/ids"
}

// Endpoints holds the URL of every call the client makes.
type Endpoints struct {
	Token           string
	RateLimitStatus string
	FollowersIDs    string
	FriendsIDs      string
	UsersShow       string
}

// DefaultEndpoints returns the public API endpoints
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:           BaseURL + "/oauth2/token",
		RateLimitStatus: BaseURL + "/1.1/application/rate_limit_status.json",
		FollowersIDs:    BaseURL + "/1.1/followers/ids.json",
		FriendsIDs:      BaseURL + "/1.1/friends/ids.json",
		UsersShow:       BaseURL + "/1.1/users/show.json",
	}
}

func (e Endpoints) ids(r Relation) (string, error) {
	switch r {
	case Followers:
		return e.FollowersIDs, nil
	case Friends:
		return e.FriendsIDs, nil
	default:
		return "", fmt.Errorf("unknown relation %q", r)
	}
}

// IDsURL builds one page request of a cursored ids listing
func IDsURL(base string, id account.Identifier, cursor int64, count int) string {
	params := url.Values{}
	id.Apply(params)
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("stringify_ids", "false")
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}
	return base + "?" + params.Encode()
}

// RateLimitStatusURL builds the status probe request for one resource family
func RateLimitStatusURL(base string, r Relation) string {
	params := url.Values{}
	params.Set("resources", r.Resource())
	return base + "?" + params.Encode()
}

// UsersShowURL builds the user lookup request
func UsersShowURL(base string, id account.Identifier) string {
	params := url.Values{}
	id.Apply(params)
	params.Set("include_entities", "false")
	return base + "?" + params.Encode()
}
