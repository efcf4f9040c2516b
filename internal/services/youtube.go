// YouTube Data API v3 client
//
// Searches videos and lists the most popular music videos. Every request carries the API key
// and waits on a token-bucket limiter so bursts of searches stay inside the project quota.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/desertthunder/karaoke/internal/shared"
)

const (
	defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultMaxResults     = 10
	// musicCategoryID is the YouTube video category for music.
	musicCategoryID = "10"
	karaokeSuffix   = " karaoke"
)

// YouTubeThumbnail is a single thumbnail rendition.
type YouTubeThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeThumbnails holds the renditions returned in a snippet.
type YouTubeThumbnails struct {
	Default *YouTubeThumbnail `json:"default,omitempty"`
	Medium  *YouTubeThumbnail `json:"medium,omitempty"`
	High    *YouTubeThumbnail `json:"high,omitempty"`
}

// YouTubeSnippet is the snippet part of search items and videos.
type YouTubeSnippet struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ChannelTitle string            `json:"channelTitle"`
	PublishedAt  string            `json:"publishedAt"`
	Thumbnails   YouTubeThumbnails `json:"thumbnails"`
}

// YouTubeSearchItem is one item of a search.list response.
type YouTubeSearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet YouTubeSnippet `json:"snippet"`
}

// YouTubeSearchResponse is the search.list payload.
type YouTubeSearchResponse struct {
	Items         []YouTubeSearchItem `json:"items"`
	NextPageToken string              `json:"nextPageToken,omitempty"`
}

// YouTubeVideo is one item of a videos.list response.
type YouTubeVideo struct {
	ID             string         `json:"id"`
	Snippet        YouTubeSnippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// YouTubeVideoListResponse is the videos.list payload.
type YouTubeVideoListResponse struct {
	Items         []YouTubeVideo `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

// SearchParams narrows a video search.
type SearchParams struct {
	Query      string
	PageToken  string
	MaxResults int
	// MusicOnly restricts results to the music category.
	MusicOnly bool
}

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// RequestsPerSecond bounds outbound calls; zero or less disables limiting.
	RequestsPerSecond float64
}

// YouTubeService calls the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeService creates a YouTube Data API client.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYouTubeBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Configured reports whether an API key is present.
func (y *YouTubeService) Configured() bool {
	return y != nil && y.apiKey != ""
}

// Search runs search.list for videos matching p.
func (y *YouTubeService) Search(ctx context.Context, p SearchParams) (*YouTubeSearchResponse, error) {
	if p.MaxResults <= 0 {
		p.MaxResults = defaultMaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", p.Query)
	params.Set("maxResults", strconv.Itoa(p.MaxResults))
	if p.MusicOnly {
		params.Set("videoCategoryId", musicCategoryID)
	}
	if p.PageToken != "" {
		params.Set("pageToken", p.PageToken)
	}

	var resp YouTubeSearchResponse
	if err := y.doRequest(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchKaraoke searches for karaoke versions of query.
func (y *YouTubeService) SearchKaraoke(ctx context.Context, query string) (*YouTubeSearchResponse, error) {
	return y.Search(ctx, SearchParams{Query: query + karaokeSuffix})
}

// Popular lists the most popular music videos.
func (y *YouTubeService) Popular(ctx context.Context, maxResults int) (*YouTubeVideoListResponse, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("chart", "mostPopular")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var resp YouTubeVideoListResponse
	if err := y.doRequest(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest performs a GET against endpoint with the API key attached and decodes the JSON body into result.
func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if !y.Configured() {
		return shared.ErrMissingAPIKey
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return &shared.UpstreamError{Service: "youtube", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return &shared.UpstreamError{Service: "youtube", Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &shared.UpstreamError{Service: "youtube", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
