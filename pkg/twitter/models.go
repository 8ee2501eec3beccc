package twitter

// IDsPage is one page of followers/ids or friends/ids
type IDsPage struct {
	IDs            []int64 `json:"ids"`
	NextCursor     int64   `json:"next_cursor"`
	PreviousCursor int64   `json:"previous_cursor"`
}

// User is the subset of users/show the client reads
type User struct {
	ID             int64  `json:"id"`
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Protected      bool   `json:"protected"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
}

// RateLimitStatus is the application/rate_limit_status response
type RateLimitStatus struct {
	Resources map[string]map[string]RateLimitEntry `json:"resources"`
}

// RateLimitEntry is the budget of a single endpoint
type RateLimitEntry struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// apiErrorBody covers both error shapes the v1.1 API returns:
// {"errors":[{"code":34,"message":"..."}]} and {"request":"...","error":"Not authorized."}
type apiErrorBody struct {
	Errors []apiError `json:"errors"`
	Error  string     `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
