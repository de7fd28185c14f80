// Package catalog orchestrates catalog writes: metadata ingestion and
// the editorial mutations admins perform on stored records.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"streamhub/internal/anilist"
	"streamhub/internal/content"
	"streamhub/pkg/apperr"
	"streamhub/pkg/models"
)

// htmlTag strips markup from metadata descriptions. Plain tag removal,
// not sanitization; the output is treated as text everywhere.
var htmlTag = regexp.MustCompile(`<[^>]*>`)

type Service struct {
	Repo    *content.Repo
	Anilist *anilist.Client

	// DefaultCategory applies when an import names none.
	DefaultCategory models.Category
}

func NewService(repo *content.Repo, client *anilist.Client, defaultCategory models.Category) *Service {
	if defaultCategory == "" {
		defaultCategory = models.CategoryNewest
	}
	return &Service{Repo: repo, Anilist: client, DefaultCategory: defaultCategory}
}

// ServerEntryInput is one requested server link, used by the single
// and bulk upsert paths.
type ServerEntryInput struct {
	ServerName string `json:"serverName"`
	Episode    int    `json:"episode"`
	URL        string `json:"url"`
	Quality    string `json:"quality"`
	Title      string `json:"title"`
}

// Ingest resolves an AniList id into a stored record. Re-ingesting an
// id refreshes the metadata while keeping the editorial state unless
// the call supplies its own category or servers.
func (s *Service) Ingest(ctx context.Context, anilistID int, category models.Category, kind models.Kind, servers []ServerEntryInput) (*models.Content, error) {
	media, err := s.Anilist.GetByID(ctx, anilistID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, apperr.NotFound("no metadata record for id %d", anilistID)
	}

	c := contentFromMedia(media)
	c.Category = category
	if kind != "" {
		c.Kind = kind
	}
	for _, in := range servers {
		if !models.IsValidServerName(in.ServerName) {
			continue
		}
		c.SetEpisodeLink(in.ServerName, newEpisodeLink(in))
	}

	existing, err := s.Repo.GetByAnilistID(ctx, anilistID)
	if err != nil {
		return nil, err
	}
	if existing == nil && c.Category == "" {
		c.Category = s.DefaultCategory
	}

	stored, err := s.Repo.UpsertByAnilistID(ctx, c)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"anilistId": anilistID,
		"id":        stored.ID,
		"title":     stored.Title.Display(),
	}).Info("content ingested")
	return stored, nil
}

// UpdatePatch is the typed partial update the admin surface accepts.
// Anything outside these fields is dropped before it gets here.
type UpdatePatch struct {
	Category *string            `json:"category"`
	Kind     *string            `json:"type"`
	Featured *bool              `json:"featured"`
	Servers  []ServerEntryInput `json:"servers"`
}

// Update applies a validated partial update and returns the stored
// record. Invalid enum values fail without touching the record.
func (s *Service) Update(ctx context.Context, id string, p UpdatePatch) (*models.Content, error) {
	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Category != nil {
		cat, ok := models.ParseCategory(*p.Category)
		if !ok {
			return nil, apperr.Validation("invalid category %q", *p.Category)
		}
		c.Category = cat
	}
	if p.Kind != nil {
		kind, ok := models.ParseKind(*p.Kind)
		if !ok {
			return nil, apperr.Validation("invalid type %q", *p.Kind)
		}
		c.Kind = kind
	}
	if p.Featured != nil {
		c.Featured = *p.Featured
	}
	for _, in := range p.Servers {
		if !models.IsValidServerName(in.ServerName) {
			continue
		}
		c.SetEpisodeLink(in.ServerName, newEpisodeLink(in))
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCategory validates and persists the editorial category.
func (s *Service) SetCategory(ctx context.Context, id, raw string) (*models.Content, error) {
	cat, ok := models.ParseCategory(raw)
	if !ok {
		return nil, apperr.Validation("invalid category %q", raw)
	}

	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Category = cat
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetBanner flips the hero-rotation flag. The flag is already a bool
// by the time it gets here; anything non-true in the request body
// binds to false.
func (s *Service) SetBanner(ctx context.Context, id string, flag bool) (*models.Content, error) {
	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ShowInBanner = flag
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertServerEntry adds or replaces the link for one (server,
// episode) pair and persists the record.
func (s *Service) UpsertServerEntry(ctx context.Context, id string, in ServerEntryInput) (*models.Content, error) {
	if !models.IsValidServerName(in.ServerName) {
		return nil, apperr.Validation("server must be one of %v", models.ValidServerNames)
	}
	if in.URL == "" {
		return nil, apperr.Validation("url is required")
	}
	if in.Episode < 0 {
		return nil, apperr.Validation("episode must be >= 0")
	}

	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	c.SetEpisodeLink(in.ServerName, newEpisodeLink(in))
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BulkUpsertServerEntries applies a batch of links against a single
// record and persists once. Entries with an unknown server name are
// skipped rather than aborting the batch; the skipped count comes back
// to the caller.
func (s *Service) BulkUpsertServerEntries(ctx context.Context, id string, entries []ServerEntryInput) (*models.Content, int, error) {
	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	skipped := 0
	for _, in := range entries {
		if !models.IsValidServerName(in.ServerName) || in.URL == "" {
			skipped++
			continue
		}
		c.SetEpisodeLink(in.ServerName, newEpisodeLink(in))
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, 0, err
	}
	return c, skipped, nil
}

// RemoveServerEntry drops a single link by its entry id.
func (s *Service) RemoveServerEntry(ctx context.Context, id, entryID string) (*models.Content, error) {
	c, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.RemoveEpisodeLink(entryID) {
		return nil, apperr.NotFound("server entry not found")
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("content not found")
	}
	return nil
}

func (s *Service) mustGet(ctx context.Context, id string) (*models.Content, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("content not found")
	}
	return c, nil
}

func newEpisodeLink(in ServerEntryInput) models.EpisodeLink {
	return models.EpisodeLink{
		ID:            uuid.NewString(),
		EpisodeNumber: in.Episode,
		Title:         in.Title,
		URL:           in.URL,
		Quality:       in.Quality,
		UploadedAt:    time.Now().UTC(),
	}
}

// contentFromMedia maps a metadata record into a fresh Content. The
// description loses its markup, the release date is assembled from the
// fuzzy start date, and a trailer URL is only composed for youtube.
func contentFromMedia(m *anilist.Media) *models.Content {
	c := &models.Content{
		AnilistID: &m.ID,
		Title: models.Title{
			Romaji:  m.Title.Romaji,
			English: m.Title.English,
			Native:  m.Title.Native,
		},
		Format:       m.Format,
		Status:       m.Status,
		Season:       m.Season,
		SeasonYear:   m.SeasonYear,
		Description:  StripHTML(m.Description),
		CoverImage:   m.CoverImage.Large,
		BannerImage:  m.BannerImage,
		Genres:       m.Genres,
		Tags:         m.Tags,
		Studios:      m.Studios,
		Episodes:     m.Episodes,
		Duration:     m.Duration,
		AverageScore: m.AverageScore,
		Popularity:   m.Popularity,
		Trending:     m.Trending,
	}
	if c.CoverImage == "" {
		c.CoverImage = m.CoverImage.Medium
	}

	if m.StartDate.Year > 0 {
		month := m.StartDate.Month
		if month < 1 {
			month = 1
		}
		day := m.StartDate.Day
		if day < 1 {
			day = 1
		}
		t := time.Date(m.StartDate.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		c.ReleaseDate = &t
	}

	if m.Trailer != nil && m.Trailer.Site == "youtube" {
		c.Trailer = fmt.Sprintf("https://www.youtube.com/watch?v=%s", m.Trailer.ID)
	}

	return c
}

// StripHTML removes markup tags from metadata text.
func StripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}
