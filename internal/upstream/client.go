// Package upstream talks to the public drama catalog API. Requests
// carry browser-imitating headers; an anti-bot cookie can be attached
// from configuration and rotated without a rebuild.
package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"streamhub/pkg/apperr"
)

const DefaultBaseURL = "https://kisskh.do"

// paramWhitelist is the only set of query parameters ever forwarded
// upstream.
var paramWhitelist = []string{"ispc", "c", "q", "type", "isq", "kkey", "page"}

type Client struct {
	BaseURL string
	Cookie  string
	HTTP    *http.Client
}

func NewClient(baseURL, cookie string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Cookie:  cookie,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// DramaListItem is the list projection exposed to proxy consumers.
type DramaListItem struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail"`
	EpisodesCount int    `json:"episodesCount"`
	Label         string `json:"label"`
	FavoriteID    int    `json:"favoriteID"`
}

// ShowItem is the smaller projection for the hero-section route.
type ShowItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

type EpisodeRef struct {
	ID     int     `json:"id"`
	Number float64 `json:"number"`
	Sub    int     `json:"sub"`
}

// DramaDetail is the detail projection; episodes keep upstream order.
type DramaDetail struct {
	ID            int          `json:"id"`
	Title         string       `json:"title"`
	Thumbnail     string       `json:"thumbnail"`
	Description   string       `json:"description"`
	ReleaseDate   string       `json:"releaseDate"`
	Country       string       `json:"country"`
	Status        string       `json:"status"`
	Type          string       `json:"type"`
	EpisodesCount int          `json:"episodesCount"`
	Episodes      []EpisodeRef `json:"episodes"`
}

// Subtitle renames the upstream field land to language; everything
// else passes through.
type Subtitle struct {
	Src      string `json:"src"`
	Label    string `json:"label"`
	Language string `json:"language"`
	Default  bool   `json:"default"`
}

type subtitleWire struct {
	Src     string `json:"src"`
	Label   string `json:"label"`
	Land    string `json:"land"`
	Default bool   `json:"default"`
}

func (c *Client) Show(ctx context.Context) ([]ShowItem, error) {
	var out []ShowItem
	err := c.getJSON(ctx, "/api/DramaList/Show", nil, nil, &out)
	return out, err
}

func (c *Client) TopRating(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/TopRating", q, url.Values{"ispc": {"true"}})
}

func (c *Client) MostView(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/MostView", q, url.Values{"ispc": {"true"}, "c": {"1"}})
}

func (c *Client) MostSearch(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/MostSearch", q, url.Values{"ispc": {"false"}})
}

func (c *Client) LastUpdate(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/LastUpdate", q, url.Values{"ispc": {"true"}})
}

func (c *Client) Upcoming(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/Upcoming", q, url.Values{"ispc": {"true"}})
}

func (c *Client) Animate(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/Animate", q, url.Values{"ispc": {"false"}})
}

func (c *Client) Search(ctx context.Context, q url.Values) ([]DramaListItem, error) {
	return c.list(ctx, "/api/DramaList/Search", q, url.Values{"q": {""}, "type": {"0"}})
}

func (c *Client) Drama(ctx context.Context, id string, q url.Values) (*DramaDetail, error) {
	var out DramaDetail
	err := c.getJSON(ctx, "/api/DramaList/Drama/"+url.PathEscape(id), q, url.Values{"isq": {"true"}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Episodes is the detail route narrowed to its episode list.
func (c *Client) Episodes(ctx context.Context, id string, q url.Values) ([]EpisodeRef, error) {
	detail, err := c.Drama(ctx, id, q)
	if err != nil {
		return nil, err
	}
	if detail.Episodes == nil {
		return []EpisodeRef{}, nil
	}
	return detail.Episodes, nil
}

func (c *Client) Subtitles(ctx context.Context, episodeID, kkey string) ([]Subtitle, error) {
	var wire []subtitleWire
	err := c.getJSON(ctx, "/api/Sub/"+url.PathEscape(episodeID), url.Values{"kkey": {kkey}}, nil, &wire)
	if err != nil {
		return nil, err
	}
	out := make([]Subtitle, 0, len(wire))
	for _, s := range wire {
		out = append(out, Subtitle{Src: s.Src, Label: s.Label, Language: s.Land, Default: s.Default})
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, path string, q, defaults url.Values) ([]DramaListItem, error) {
	var out []DramaListItem
	if err := c.getJSON(ctx, path, q, defaults, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getJSON builds the upstream request from whitelisted caller params
// layered over per-route defaults, attaches the browser headers, and
// decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params, defaults url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "build upstream request")
	}

	q := req.URL.Query()
	for key, vals := range defaults {
		q.Set(key, vals[0])
	}
	for _, key := range paramWhitelist {
		if params == nil {
			break
		}
		if v := params.Get(key); v != "" {
			q.Set(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperr.UpstreamTimeout("upstream request", err)
		}
		return apperr.UpstreamStatus(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read upstream response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.UpstreamStatus(resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode upstream response")
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	h := req.Header
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", c.BaseURL+"/")
	h.Set("Sec-CH-UA", `"Chromium";v="142", "Google Chrome";v="142", "Not_A Brand";v="99"`)
	h.Set("Sec-CH-UA-Mobile", "?0")
	h.Set("Sec-CH-UA-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36")
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeout interface{ Timeout() bool }
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}
