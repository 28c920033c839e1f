package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS city_points (
	position  INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	name      TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	score     REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS city_metadata (
	position INTEGER PRIMARY KEY,
	city     TEXT NOT NULL,
	data     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS city_images (
	id        TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	city      TEXT NOT NULL,
	image_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS city_news (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	link        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS region_border (
	name       TEXT PRIMARY KEY,
	geojson    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_city_metadata_city ON city_metadata(city);
CREATE INDEX IF NOT EXISTS idx_city_images_city ON city_images(city);
CREATE INDEX IF NOT EXISTS idx_city_news_city ON city_news(city, position);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// replace runs fn inside a transaction after clearing table.
func (s *SQLiteStore) replace(ctx context.Context, table string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: replace %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "sqlite: replace %s: delete", table)
	}
	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrapf(tx.Commit(), "sqlite: replace %s: commit", table)
}

func (s *SQLiteStore) ReplacePoints(ctx context.Context, points []model.CityPoint) error {
	return s.replace(ctx, "city_points", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO city_points (position, id, name, latitude, longitude, score) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare point insert")
		}
		defer stmt.Close() //nolint:errcheck

		for i, p := range points {
			if _, err := stmt.ExecContext(ctx, i, p.ID, p.Name, p.Latitude, p.Longitude, p.Score); err != nil {
				return eris.Wrapf(err, "sqlite: insert point %s", p.Name)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceMetadata(ctx context.Context, metas []model.CityMetadata) error {
	return s.replace(ctx, "city_metadata", func(tx *sql.Tx) error {
		for i, m := range metas {
			data, err := json.Marshal(m)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal metadata %s", m.City)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO city_metadata (position, city, data) VALUES (?, ?, ?)`,
				i, m.City, string(data),
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert metadata %s", m.City)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceImages(ctx context.Context, images []model.CityImage) error {
	return s.replace(ctx, "city_images", func(tx *sql.Tx) error {
		for i, img := range images {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO city_images (id, position, city, image_url) VALUES (?, ?, ?, ?)`,
				uuid.New().String(), i, img.City, img.ImageURL,
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert image %s", img.City)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceNews(ctx context.Context, news map[string][]model.NewsItem) error {
	return s.replace(ctx, "city_news", func(tx *sql.Tx) error {
		for city, items := range news {
			for i, n := range items {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO city_news (id, city, position, title, description, link) VALUES (?, ?, ?, ?, ?, ?)`,
					uuid.New().String(), city, i, n.Title, n.Description, n.Link,
				); err != nil {
					return eris.Wrapf(err, "sqlite: insert news for %s", city)
				}
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveBorder(ctx context.Context, border *geo.Border) error {
	data, err := json.Marshal(border)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal border")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO region_border (name, geojson, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET geojson = excluded.geojson, updated_at = excluded.updated_at`,
		borderName, string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save border")
}

func (s *SQLiteStore) Points(ctx context.Context) ([]model.CityPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, score FROM city_points ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list points")
	}
	defer rows.Close()

	var out []model.CityPoint
	for rows.Next() {
		var p model.CityPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate points")
}

func (s *SQLiteStore) Metadata(ctx context.Context) ([]model.CityMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM city_metadata ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metadata")
	}
	defer rows.Close()

	var out []model.CityMetadata
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metadata")
		}
		var m model.CityMetadata
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal metadata")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate metadata")
}

func (s *SQLiteStore) Images(ctx context.Context) ([]model.CityImage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT city, image_url FROM city_images ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list images")
	}
	defer rows.Close()

	var out []model.CityImage
	for rows.Next() {
		var img model.CityImage
		if err := rows.Scan(&img.City, &img.ImageURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan image")
		}
		out = append(out, img)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate images")
}

func (s *SQLiteStore) News(ctx context.Context) (map[string][]model.NewsItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, title, description, link FROM city_news ORDER BY city, position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list news")
	}
	defer rows.Close()

	out := make(map[string][]model.NewsItem)
	for rows.Next() {
		var city string
		var n model.NewsItem
		if err := rows.Scan(&city, &n.Title, &n.Description, &n.Link); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan news")
		}
		out[city] = append(out[city], n)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate news")
}

func (s *SQLiteStore) Border(ctx context.Context) (*geo.Border, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT geojson FROM region_border WHERE name = ?`, borderName,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errNoBorder()
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get border")
	}
	return geo.ParseBorder(strings.NewReader(data))
}
