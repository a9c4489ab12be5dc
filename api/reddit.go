package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-feeds/models"
)

const (
	pageLimit   = 100         // max number of posts per request
	afterCursor = "after_key" // sent as-is; only the first page is ever read
)

// Listings are the listing types fetched for every subreddit, in order
var Listings = []string{"hot", "new", "top"}

// RedditAPI represents a Reddit API client
type RedditAPI struct {
	apiBase    string
	userAgent  string
	httpClient *http.Client
	tokens     *TokenAcquirer
	log        *logrus.Logger
}

// listingResponse is the envelope of a listing; children are kept raw so that
// absent fields stay distinguishable from zero values
type listingResponse struct {
	Kind string `json:"kind"`
	Data *struct {
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

type listingChild struct {
	Kind string         `json:"kind"`
	Data models.RawItem `json:"data"`
}

// NewRedditAPI creates a new Reddit API client
func NewRedditAPI(creds Credentials, tokenURL, apiBase string, timeout time.Duration, log *logrus.Logger) *RedditAPI {
	httpClient := &http.Client{Timeout: timeout}
	return &RedditAPI{
		apiBase:    apiBase,
		userAgent:  creds.UserAgent,
		httpClient: httpClient,
		tokens:     NewTokenAcquirer(creds, tokenURL, httpClient),
		log:        log,
	}
}

// AcquireToken fetches a fresh bearer token
func (r *RedditAPI) AcquireToken(ctx context.Context) (string, error) {
	r.log.Debug("Authenticating with Reddit API")
	token, err := r.tokens.Acquire(ctx)
	if err != nil {
		return "", err
	}
	r.log.Debug("Successfully authenticated with Reddit API")
	return token, nil
}

// FetchListing fetches one page of a subreddit listing and returns the raw items in order
func (r *RedditAPI) FetchListing(ctx context.Context, token, subreddit, listing string) ([]models.RawItem, error) {
	if !validListing(listing) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidListing, listing)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))
	params.Set("after", afterCursor)
	endpoint := fmt.Sprintf("%s/r/%s/%s/?%s", r.apiBase, url.PathEscape(subreddit), listing, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	r.logRateLimits(resp, subreddit)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &models.HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	items, err := decodeListing(resp.Body)
	if err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"subreddit":  subreddit,
		"listing":    listing,
		"item_count": len(items),
	}).Debug("Fetched listing from Reddit")

	return items, nil
}

// decodeListing extracts data.children[].data from a listing body
func decodeListing(body io.Reader) ([]models.RawItem, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var listing listingResponse
	if err := dec.Decode(&listing); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", models.ErrMalformedResponse, err)
	}
	if listing.Data == nil || listing.Data.Children == nil {
		return nil, fmt.Errorf("%w: data.children not found", models.ErrMalformedResponse)
	}

	items := make([]models.RawItem, 0, len(listing.Data.Children))
	for _, raw := range listing.Data.Children {
		var child listingChild
		childDec := json.NewDecoder(bytes.NewReader(raw))
		childDec.UseNumber()
		if err := childDec.Decode(&child); err != nil || child.Data == nil {
			// a child without a data object carries no post
			continue
		}
		items = append(items, child.Data)
	}

	return items, nil
}

func validListing(listing string) bool {
	for _, l := range Listings {
		if l == listing {
			return true
		}
	}
	return false
}

// logRateLimits records the rate limit headers; the run never throttles on them
func (r *RedditAPI) logRateLimits(resp *http.Response, subreddit string) {
	// X-Ratelimit-Used: Approximate number of requests used in this period
	// X-Ratelimit-Remaining: Approximate number of requests left to use
	// X-Ratelimit-Reset: Approximate number of seconds to end of period
	used := getHeaderAsInt(resp.Header, "X-Ratelimit-Used")
	remaining := getHeaderAsInt(resp.Header, "X-Ratelimit-Remaining")
	reset := getHeaderAsInt(resp.Header, "X-Ratelimit-Reset")

	if reset == 0 && used == 0 {
		return
	}

	r.log.WithFields(logrus.Fields{
		"subreddit": subreddit,
		"used":      used,
		"remaining": remaining,
		"reset_sec": reset,
	}).Debug("Reddit rate limit status")
}

func getHeaderAsInt(header http.Header, name string) int {
	value := header.Get(name)
	if value == "" {
		return 0
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		// Reddit sends X-Ratelimit-Remaining as a float
		floatValue, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil {
			return 0
		}
		return int(floatValue)
	}

	return intValue
}
