// Package content is the persistent store of catalog records.
package content

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"streamhub/pkg/apperr"
	"streamhub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Filter composes the equality and substring predicates a listing can
// use. Zero values mean "no constraint".
type Filter struct {
	Kind         models.Kind
	Category     models.Category
	ShowInBanner *bool
	Featured     *bool
	Title        string // case-insensitive substring over all three name forms
	Genre        string // case-insensitive substring inside the genres list
	Status       string

	RequireScore    bool // only rows with average_score present
	RequireTrending bool // only rows with trending present
}

// Sort selects one of the supported orderings. Every ordering is
// descending; ties and NULL placement follow the public list contracts.
type Sort int

const (
	SortCreatedDesc Sort = iota
	SortUpdatedDesc
	SortPopularityDesc
	SortScoreDesc
	SortTrendingDesc
	SortReleaseDesc
	SortViewsDesc
)

func (s Sort) orderBy() string {
	switch s {
	case SortUpdatedDesc:
		return "updated_at DESC"
	case SortPopularityDesc:
		return "popularity IS NULL, popularity DESC"
	case SortScoreDesc:
		return "average_score IS NULL, average_score DESC"
	case SortTrendingDesc:
		return "trending IS NULL, trending DESC, popularity IS NULL, popularity DESC"
	case SortReleaseDesc:
		return "release_date IS NULL, release_date DESC, popularity IS NULL, popularity DESC"
	case SortViewsDesc:
		return "views DESC"
	default:
		return "created_at DESC"
	}
}

const contentColumns = `
	id, anilist_id,
	title_romaji, title_english, title_native,
	kind, format, status, season, season_year,
	description, cover_image, banner_image, trailer,
	genres, tags, studios,
	episodes, duration, average_score, popularity, trending,
	category, show_in_banner, featured, rating, release_date,
	views, likes, servers, created_at, updated_at
`

// Insert stores a new record, assigning the internal id and both
// timestamps.
func (r *Repo) Insert(ctx context.Context, c *models.Content) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Category == "" {
		c.Category = models.CategoryNone
	}
	if c.Kind == "" {
		c.Kind = models.KindAnime
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO content (`+contentColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, insertArgs(c)...)
	if err != nil {
		return apperr.Storage("insert content", err)
	}
	return nil
}

// Save rewrites every mutable column of an existing record and bumps
// updated_at.
func (r *Repo) Save(ctx context.Context, c *models.Content) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
		UPDATE content SET
			anilist_id = ?,
			title_romaji = ?, title_english = ?, title_native = ?,
			kind = ?, format = ?, status = ?, season = ?, season_year = ?,
			description = ?, cover_image = ?, banner_image = ?, trailer = ?,
			genres = ?, tags = ?, studios = ?,
			episodes = ?, duration = ?, average_score = ?, popularity = ?, trending = ?,
			category = ?, show_in_banner = ?, featured = ?, rating = ?, release_date = ?,
			servers = ?, updated_at = ?
		WHERE id = ?
	`,
		nullableInt(c.AnilistID),
		c.Title.Romaji, c.Title.English, c.Title.Native,
		string(c.Kind), c.Format, c.Status, c.Season, nullableInt(c.SeasonYear),
		c.Description, c.CoverImage, c.BannerImage, c.Trailer,
		marshalJSON(c.Genres), marshalJSON(c.Tags), marshalJSON(c.Studios),
		nullableInt(c.Episodes), nullableInt(c.Duration), nullableInt(c.AverageScore),
		nullableInt(c.Popularity), nullableInt(c.Trending),
		string(c.Category), boolInt(c.ShowInBanner), boolInt(c.Featured), c.Rating,
		nullableTime(c.ReleaseDate),
		marshalJSON(c.Servers), c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return apperr.Storage("save content", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("content not found")
	}
	return nil
}

// UpsertByAnilistID merges the incoming metadata over any record that
// already carries the same anilist id. Editorial state (category,
// banner flag, featured, servers, counters) survives a re-ingest
// unless the caller supplies replacements.
func (r *Repo) UpsertByAnilistID(ctx context.Context, c *models.Content) (*models.Content, error) {
	if c.AnilistID == nil {
		if err := r.Insert(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	existing, err := r.GetByAnilistID(ctx, *c.AnilistID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := r.Insert(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.Views = existing.Views
	c.Likes = existing.Likes
	c.ShowInBanner = existing.ShowInBanner
	c.Featured = existing.Featured
	if c.Category == "" {
		c.Category = existing.Category
	}
	if c.Kind == "" {
		c.Kind = existing.Kind
	}
	if len(c.Servers) == 0 {
		c.Servers = existing.Servers
	}
	if c.Rating == "" {
		c.Rating = existing.Rating
	}

	if err := r.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	return scanContent(row)
}

func (r *Repo) GetByAnilistID(ctx context.Context, anilistID int) (*models.Content, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE anilist_id = ?`, anilistID)
	return scanContent(row)
}

func (r *Repo) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildWhere(f)
	row := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`+where, args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, apperr.Storage("count content", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, f Filter, sort Sort, limit, offset int) ([]models.Content, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where, args := buildWhere(f)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM content`+where+`
		ORDER BY `+sort.orderBy()+`
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, apperr.Storage("list content", err)
	}
	defer rows.Close()

	out := make([]models.Content, 0, limit)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list content", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return false, apperr.Storage("delete content", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IncrementCounter atomically bumps views or likes. Counters are not
// editorial changes, so updated_at stays put.
func (r *Repo) IncrementCounter(ctx context.Context, id, field string, amount int) (*models.Content, error) {
	if field != "views" && field != "likes" {
		return nil, apperr.Validation("counter field must be views or likes")
	}
	if amount < 1 {
		amount = 1
	}

	res, err := r.DB.ExecContext(ctx,
		`UPDATE content SET `+field+` = `+field+` + ? WHERE id = ?`, amount, id)
	if err != nil {
		return nil, apperr.Storage("increment "+field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Stats summarizes the collection for the admin dashboard.
type Stats struct {
	Total      int            `json:"total"`
	ByKind     map[string]int `json:"byType"`
	ByCategory map[string]int `json:"byCategory"`
	InBanner   int            `json:"inBanner"`
}

func (r *Repo) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		ByKind:     map[string]int{},
		ByCategory: map[string]int{},
	}

	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`).Scan(&st.Total); err != nil {
		return nil, apperr.Storage("stats total", err)
	}
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM content WHERE show_in_banner = 1`).Scan(&st.InBanner); err != nil {
		return nil, apperr.Storage("stats banner", err)
	}

	if err := r.groupCount(ctx, "kind", st.ByKind); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "category", st.ByCategory); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Repo) groupCount(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM content GROUP BY `+column)
	if err != nil {
		return apperr.Storage("stats by "+column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return apperr.Storage("stats by "+column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

func buildWhere(f Filter) (string, []any) {
	var where []string
	var args []any

	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.ShowInBanner != nil {
		where = append(where, "show_in_banner = ?")
		args = append(args, boolInt(*f.ShowInBanner))
	}
	if f.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, boolInt(*f.Featured))
	}
	if s := strings.TrimSpace(f.Title); s != "" {
		where = append(where, "(LOWER(title_romaji) LIKE ? OR LOWER(title_english) LIKE ? OR LOWER(title_native) LIKE ?)")
		kw := "%" + strings.ToLower(s) + "%"
		args = append(args, kw, kw, kw)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		// any-match inside the stored JSON array text
		where = append(where, "LOWER(genres) LIKE ?")
		args = append(args, "%"+strings.ToLower(g)+"%")
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		where = append(where, "LOWER(status) = ?")
		args = append(args, strings.ToLower(s))
	}
	if f.RequireScore {
		where = append(where, "average_score IS NOT NULL")
	}
	if f.RequireTrending {
		where = append(where, "trending IS NOT NULL")
	}

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func insertArgs(c *models.Content) []any {
	return []any{
		c.ID, nullableInt(c.AnilistID),
		c.Title.Romaji, c.Title.English, c.Title.Native,
		string(c.Kind), c.Format, c.Status, c.Season, nullableInt(c.SeasonYear),
		c.Description, c.CoverImage, c.BannerImage, c.Trailer,
		marshalJSON(c.Genres), marshalJSON(c.Tags), marshalJSON(c.Studios),
		nullableInt(c.Episodes), nullableInt(c.Duration), nullableInt(c.AverageScore),
		nullableInt(c.Popularity), nullableInt(c.Trending),
		string(c.Category), boolInt(c.ShowInBanner), boolInt(c.Featured), c.Rating,
		nullableTime(c.ReleaseDate),
		c.Views, c.Likes, marshalJSON(c.Servers),
		c.CreatedAt, c.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	var (
		c           models.Content
		anilistID   sql.NullInt64
		seasonYear  sql.NullInt64
		episodes    sql.NullInt64
		duration    sql.NullInt64
		score       sql.NullInt64
		popularity  sql.NullInt64
		trending    sql.NullInt64
		releaseDate sql.NullTime
		kind        string
		category    string
		banner      int
		featured    int
		genresJSON  string
		tagsJSON    string
		studiosJSON string
		serversJSON string
	)

	err := row.Scan(
		&c.ID, &anilistID,
		&c.Title.Romaji, &c.Title.English, &c.Title.Native,
		&kind, &c.Format, &c.Status, &c.Season, &seasonYear,
		&c.Description, &c.CoverImage, &c.BannerImage, &c.Trailer,
		&genresJSON, &tagsJSON, &studiosJSON,
		&episodes, &duration, &score, &popularity, &trending,
		&category, &banner, &featured, &c.Rating, &releaseDate,
		&c.Views, &c.Likes, &serversJSON,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Storage("scan content", err)
	}

	c.Kind = models.Kind(kind)
	c.Category = models.Category(category)
	c.ShowInBanner = banner != 0
	c.Featured = featured != 0
	c.AnilistID = intPtr(anilistID)
	c.SeasonYear = intPtr(seasonYear)
	c.Episodes = intPtr(episodes)
	c.Duration = intPtr(duration)
	c.AverageScore = intPtr(score)
	c.Popularity = intPtr(popularity)
	c.Trending = intPtr(trending)
	if releaseDate.Valid {
		t := releaseDate.Time
		c.ReleaseDate = &t
	}

	c.Genres = unmarshalStrings(genresJSON)
	c.Tags = unmarshalStrings(tagsJSON)
	c.Studios = unmarshalStrings(studiosJSON)
	_ = json.Unmarshal([]byte(serversJSON), &c.Servers)
	if c.Servers == nil {
		c.Servers = []models.ServerGroup{}
	}

	return &c, nil
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

func unmarshalStrings(s string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
