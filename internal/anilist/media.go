package anilist

// Media is the normalized projection ingestion works with. Tags and
// studios are unwrapped to plain name lists; absent numerics stay nil.
type Media struct {
	ID          int        `json:"id"`
	Title       Title      `json:"title"`
	Description string     `json:"description"`
	CoverImage  CoverImage `json:"coverImage"`
	BannerImage string     `json:"bannerImage"`

	Genres  []string `json:"genres"`
	Tags    []string `json:"tags"`
	Studios []string `json:"studios"`

	Episodes     *int `json:"episodes"`
	Duration     *int `json:"duration"`
	AverageScore *int `json:"averageScore"`
	Popularity   *int `json:"popularity"`
	Trending     *int `json:"trending"`

	Status     string `json:"status"`
	Season     string `json:"season"`
	SeasonYear *int   `json:"seasonYear"`
	Format     string `json:"format"`

	StartDate FuzzyDate `json:"startDate"`
	Trailer   *Trailer  `json:"trailer"`
	IsAdult   bool      `json:"isAdult"`
}

type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type CoverImage struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
}

// FuzzyDate is AniList's partial date; any component may be zero.
type FuzzyDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type Trailer struct {
	ID   string `json:"id"`
	Site string `json:"site"`
}

// mediaWire matches the raw GraphQL shape before tag/studio
// containers are unwrapped.
type mediaWire struct {
	ID          int        `json:"id"`
	Title       Title      `json:"title"`
	Description string     `json:"description"`
	CoverImage  CoverImage `json:"coverImage"`
	BannerImage string     `json:"bannerImage"`
	Genres      []string   `json:"genres"`
	Tags        []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Episodes     *int   `json:"episodes"`
	Duration     *int   `json:"duration"`
	Status       string `json:"status"`
	Season       string `json:"season"`
	SeasonYear   *int   `json:"seasonYear"`
	AverageScore *int   `json:"averageScore"`
	Popularity   *int   `json:"popularity"`
	Trending     *int   `json:"trending"`
	Format       string `json:"format"`
	Studios      struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
	StartDate FuzzyDate `json:"startDate"`
	Trailer   *Trailer  `json:"trailer"`
	IsAdult   bool      `json:"isAdult"`
}

func (w mediaWire) toMedia() Media {
	tags := make([]string, 0, len(w.Tags))
	for _, t := range w.Tags {
		if t.Name != "" {
			tags = append(tags, t.Name)
		}
	}
	studios := make([]string, 0, len(w.Studios.Nodes))
	for _, s := range w.Studios.Nodes {
		if s.Name != "" {
			studios = append(studios, s.Name)
		}
	}

	return Media{
		ID:           w.ID,
		Title:        w.Title,
		Description:  w.Description,
		CoverImage:   w.CoverImage,
		BannerImage:  w.BannerImage,
		Genres:       w.Genres,
		Tags:         tags,
		Studios:      studios,
		Episodes:     w.Episodes,
		Duration:     w.Duration,
		AverageScore: w.AverageScore,
		Popularity:   w.Popularity,
		Trending:     w.Trending,
		Status:       w.Status,
		Season:       w.Season,
		SeasonYear:   w.SeasonYear,
		Format:       w.Format,
		StartDate:    w.StartDate,
		Trailer:      w.Trailer,
		IsAdult:      w.IsAdult,
	}
}
