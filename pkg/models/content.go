package models

import (
	"sort"
	"strings"
	"time"
)

// Category is the editorial bucket an admin assigns to a record. It
// controls which public list surfaces the record.
type Category string

const (
	CategoryUpcoming Category = "UPCOMING"
	CategoryNewest   Category = "NEWEST"
	CategoryPopular  Category = "POPULAR"
	CategoryTopRated Category = "TOP_RATED"
	CategoryNone     Category = "NONE"
)

// ParseCategory normalizes user input ("top-rated", "toprated",
// "Popular") into a Category. ok is false for anything outside the set.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UPCOMING":
		return CategoryUpcoming, true
	case "NEWEST":
		return CategoryNewest, true
	case "POPULAR":
		return CategoryPopular, true
	case "TOP_RATED", "TOP-RATED", "TOPRATED":
		return CategoryTopRated, true
	case "NONE":
		return CategoryNone, true
	default:
		return "", false
	}
}

// Kind classifies a record by the kind of show it is.
type Kind string

const (
	KindAnime  Kind = "ANIME"
	KindMovie  Kind = "MOVIE"
	KindKDrama Kind = "KDRAMA"
	KindSeries Kind = "SERIES"
	KindCDrama Kind = "CDRAMA"
	KindJDrama Kind = "JDRAMA"
	KindOther  Kind = "OTHER"
)

func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ANIME":
		return KindAnime, true
	case "MOVIE":
		return KindMovie, true
	case "KDRAMA":
		return KindKDrama, true
	case "SERIES":
		return KindSeries, true
	case "CDRAMA":
		return KindCDrama, true
	case "JDRAMA":
		return KindJDrama, true
	case "OTHER":
		return KindOther, true
	default:
		return "", false
	}
}

// ValidServerNames are the only streaming servers a record may carry.
var ValidServerNames = []string{"server1", "server2"}

func IsValidServerName(s string) bool {
	for _, v := range ValidServerNames {
		if v == s {
			return true
		}
	}
	return false
}

// Title carries the three name forms a metadata record may have.
// Any of them may be empty.
type Title struct {
	Romaji  string `json:"romaji,omitempty"`
	English string `json:"english,omitempty"`
	Native  string `json:"native,omitempty"`
}

// Display picks the best available name form for humans.
func (t Title) Display() string {
	if t.English != "" {
		return t.English
	}
	if t.Romaji != "" {
		return t.Romaji
	}
	return t.Native
}

// EpisodeLink is one streaming URL for one episode on one server.
type EpisodeLink struct {
	ID            string    `json:"id"`
	EpisodeNumber int       `json:"episodeNumber"`
	Title         string    `json:"title,omitempty"`
	URL           string    `json:"url"`
	Quality       string    `json:"quality,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// ServerGroup groups the episode links of a single named server,
// episodes kept sorted ascending by number.
type ServerGroup struct {
	ServerName string        `json:"serverName"`
	Episodes   []EpisodeLink `json:"episodes"`
}

// Content is the persisted catalog entry for a single title.
type Content struct {
	ID        string `json:"id"`
	AnilistID *int   `json:"anilistId,omitempty"`

	Title Title `json:"title"`
	Kind  Kind  `json:"type"`

	Format     string `json:"format,omitempty"`
	Status     string `json:"status,omitempty"`
	Season     string `json:"season,omitempty"`
	SeasonYear *int   `json:"seasonYear,omitempty"`

	Description string `json:"description,omitempty"`
	CoverImage  string `json:"coverImage,omitempty"`
	BannerImage string `json:"bannerImage,omitempty"`
	Trailer     string `json:"trailer,omitempty"`

	Genres  []string `json:"genres"`
	Tags    []string `json:"tags"`
	Studios []string `json:"studios"`

	Episodes     *int `json:"episodes,omitempty"`
	Duration     *int `json:"duration,omitempty"`
	AverageScore *int `json:"averageScore,omitempty"`
	Popularity   *int `json:"popularity,omitempty"`
	Trending     *int `json:"trending,omitempty"`

	Category     Category `json:"category"`
	ShowInBanner bool     `json:"showInBanner"`
	Featured     bool     `json:"featured"`
	Rating       string   `json:"rating,omitempty"`

	ReleaseDate *time.Time `json:"releaseDate,omitempty"`

	Views int `json:"views"`
	Likes int `json:"likes"`

	Servers []ServerGroup `json:"servers"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Server returns the group for the given server name, or nil.
func (c *Content) Server(name string) *ServerGroup {
	for i := range c.Servers {
		if c.Servers[i].ServerName == name {
			return &c.Servers[i]
		}
	}
	return nil
}

// DefaultServer is the group consumers should try first: server1 when
// present, otherwise the first group.
func (c *Content) DefaultServer() *ServerGroup {
	if s := c.Server("server1"); s != nil {
		return s
	}
	if len(c.Servers) > 0 {
		return &c.Servers[0]
	}
	return nil
}

// SetEpisodeLink upserts a link under the named server. An existing
// entry for the same (server, episode) pair has its url/title/quality
// replaced in place; otherwise the link is appended and the group
// re-sorted ascending by episode number. Reports whether an existing
// entry was replaced.
func (c *Content) SetEpisodeLink(serverName string, link EpisodeLink) bool {
	grp := c.Server(serverName)
	if grp == nil {
		c.Servers = append(c.Servers, ServerGroup{ServerName: serverName})
		grp = &c.Servers[len(c.Servers)-1]
	}
	for i := range grp.Episodes {
		if grp.Episodes[i].EpisodeNumber == link.EpisodeNumber {
			grp.Episodes[i].URL = link.URL
			grp.Episodes[i].Title = link.Title
			grp.Episodes[i].Quality = link.Quality
			return true
		}
	}
	grp.Episodes = append(grp.Episodes, link)
	sort.Slice(grp.Episodes, func(i, j int) bool {
		return grp.Episodes[i].EpisodeNumber < grp.Episodes[j].EpisodeNumber
	})
	return false
}

// RemoveEpisodeLink drops the link with the given entry id, pruning a
// group that ends up empty. Reports whether anything was removed.
func (c *Content) RemoveEpisodeLink(entryID string) bool {
	for gi := range c.Servers {
		eps := c.Servers[gi].Episodes
		for ei := range eps {
			if eps[ei].ID == entryID {
				c.Servers[gi].Episodes = append(eps[:ei], eps[ei+1:]...)
				if len(c.Servers[gi].Episodes) == 0 {
					c.Servers = append(c.Servers[:gi], c.Servers[gi+1:]...)
				}
				return true
			}
		}
	}
	return false
}

// EpisodeServer is the per-episode projection handed to players.
type EpisodeServer struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

// EpisodeServers lists every link for the given episode number across
// all server groups, in group order.
func (c *Content) EpisodeServers(episode int) []EpisodeServer {
	var out []EpisodeServer
	for _, grp := range c.Servers {
		for _, ep := range grp.Episodes {
			if ep.EpisodeNumber == episode {
				out = append(out, EpisodeServer{
					Name:    grp.ServerName,
					URL:     ep.URL,
					Quality: ep.Quality,
				})
			}
		}
	}
	return out
}
