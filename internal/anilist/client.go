// Package anilist is a one-shot GraphQL client for the public AniList
// metadata service. One outbound POST per call, no retries.
package anilist

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"streamhub/pkg/apperr"
)

const DefaultEndpoint = "https://graphql.anilist.co"

const mediaFields = `
	id
	title { romaji english native }
	description
	coverImage { large medium }
	bannerImage
	genres
	tags { name }
	episodes
	duration
	status
	season
	seasonYear
	averageScore
	popularity
	trending
	format
	studios { nodes { name } }
	startDate { year month day }
	trailer { id site }
	isAdult
`

const searchQuery = `
query ($search: String, $type: MediaType, $page: Int, $perPage: Int) {
	Page(page: $page, perPage: $perPage) {
		pageInfo { total currentPage lastPage hasNextPage }
		media(search: $search, type: $type, sort: POPULARITY_DESC) {` + mediaFields + `}
	}
}`

const byIDQuery = `
query ($id: Int) {
	Media(id: $id) {` + mediaFields + `}
}`

type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// PageInfo mirrors AniList's Page.pageInfo block.
type PageInfo struct {
	Total       int  `json:"total"`
	CurrentPage int  `json:"currentPage"`
	LastPage    int  `json:"lastPage"`
	HasNextPage bool `json:"hasNextPage"`
}

// Search runs a Page-wrapped media search sorted by popularity
// descending. mediaType defaults to ANIME.
func (c *Client) Search(ctx context.Context, query string, page, perPage int, mediaType string) (PageInfo, []Media, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if mediaType == "" {
		mediaType = "ANIME"
	}

	var out struct {
		Page struct {
			PageInfo PageInfo    `json:"pageInfo"`
			Media    []mediaWire `json:"media"`
		} `json:"Page"`
	}
	if err := c.post(ctx, searchQuery, map[string]any{
		"search":  query,
		"type":    mediaType,
		"page":    page,
		"perPage": perPage,
	}, &out); err != nil {
		return PageInfo{}, nil, err
	}

	media := make([]Media, 0, len(out.Page.Media))
	for _, w := range out.Page.Media {
		media = append(media, w.toMedia())
	}
	return out.Page.PageInfo, media, nil
}

// GetByID fetches a single media record. The lookup is by id alone,
// whatever the media type. Returns (nil, nil) when AniList reports the
// id as unknown.
func (c *Client) GetByID(ctx context.Context, id int) (*Media, error) {
	var out struct {
		Media *mediaWire `json:"Media"`
	}
	err := c.post(ctx, byIDQuery, map[string]any{"id": id}, &out)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	if out.Media == nil {
		return nil, nil
	}
	m := out.Media.toMedia()
	return &m, nil
}

type gqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any, data any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return errors.Wrap(err, "encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperr.UpstreamTimeout("metadata request", err)
		}
		return apperr.UpstreamStatus(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read graphql response")
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.Wrap(err, "decode graphql response")
	}

	// AniList reports a missing record as a 404 GraphQL error rather
	// than an empty data block.
	for _, ge := range envelope.Errors {
		if ge.Status == http.StatusNotFound {
			return apperr.NotFound("metadata record not found")
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFound("metadata record not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.UpstreamStatus(resp.StatusCode, string(raw))
	}
	if len(envelope.Errors) > 0 {
		return apperr.UpstreamStatus(http.StatusBadGateway, envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return errors.Wrap(err, "decode graphql data")
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeout interface{ Timeout() bool }
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}
