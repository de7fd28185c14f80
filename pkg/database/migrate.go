package database

import (
	"database/sql"
	"fmt"
)

// schema is embedded rather than shipped as a file so that in-memory
// databases can be migrated the same way as the on-disk one.
const schema = `
CREATE TABLE IF NOT EXISTS content (
	id            TEXT PRIMARY KEY,
	anilist_id    INTEGER,
	title_romaji  TEXT NOT NULL DEFAULT '',
	title_english TEXT NOT NULL DEFAULT '',
	title_native  TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL DEFAULT 'ANIME',
	format        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT '',
	season        TEXT NOT NULL DEFAULT '',
	season_year   INTEGER,
	description   TEXT NOT NULL DEFAULT '',
	cover_image   TEXT NOT NULL DEFAULT '',
	banner_image  TEXT NOT NULL DEFAULT '',
	trailer       TEXT NOT NULL DEFAULT '',
	genres        TEXT NOT NULL DEFAULT '[]',
	tags          TEXT NOT NULL DEFAULT '[]',
	studios       TEXT NOT NULL DEFAULT '[]',
	episodes      INTEGER,
	duration      INTEGER,
	average_score INTEGER,
	popularity    INTEGER,
	trending      INTEGER,
	category      TEXT NOT NULL DEFAULT 'NONE',
	show_in_banner INTEGER NOT NULL DEFAULT 0,
	featured      INTEGER NOT NULL DEFAULT 0,
	rating        TEXT NOT NULL DEFAULT 'PG-13',
	release_date  TIMESTAMP,
	views         INTEGER NOT NULL DEFAULT 0,
	likes         INTEGER NOT NULL DEFAULT 0,
	servers       TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_content_anilist
	ON content(anilist_id) WHERE anilist_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_content_category_created
	ON content(category, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_content_category_popularity
	ON content(category, popularity DESC);

CREATE INDEX IF NOT EXISTS idx_content_category_score
	ON content(category, average_score DESC);

CREATE INDEX IF NOT EXISTS idx_content_titles
	ON content(title_english, title_romaji);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
