package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/city-explorer/internal/db"
	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// preparedStatements lists the read queries prepared on each new connection.
var preparedStatements = map[string]string{
	"list_points":   `SELECT id, name, latitude, longitude, score FROM city_points ORDER BY position`,
	"list_metadata": `SELECT data FROM city_metadata ORDER BY position`,
	"list_images":   `SELECT city, image_url FROM city_images ORDER BY position`,
	"list_news":     `SELECT city, title, description, link FROM city_news ORDER BY city, position`,
	"get_border":    `SELECT geojson FROM region_border WHERE name = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	applyPoolConfig(pgxCfg, poolCfg)
	pgxCfg.AfterConnect = prepareReads

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// applyPoolConfig sets pool limits on cfg. Zero fields in poolCfg keep the
// defaults of 10 max and 2 min connections.
func applyPoolConfig(cfg *pgxpool.Config, poolCfg *PoolConfig) {
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
}

// prepareReads registers the read queries on each new connection.
func prepareReads(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range preparedStatements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return eris.Wrapf(err, "postgres: prepare %s", name)
		}
	}
	return nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS city_points (
	position  INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	name      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	score     DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS city_metadata (
	position INTEGER PRIMARY KEY,
	city     TEXT NOT NULL,
	data     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS city_images (
	id        TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	position  INTEGER NOT NULL,
	city      TEXT NOT NULL,
	image_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS city_news (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	city        TEXT NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	link        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS region_border (
	name       TEXT PRIMARY KEY,
	geojson    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_city_metadata_city ON city_metadata(city);
CREATE INDEX IF NOT EXISTS idx_city_images_city ON city_images(city);
CREATE INDEX IF NOT EXISTS idx_city_news_city ON city_news(city, position);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplacePoints(ctx context.Context, points []model.CityPoint) error {
	rows := make([][]any, 0, len(points))
	for i, p := range points {
		rows = append(rows, []any{i, p.ID, p.Name, p.Latitude, p.Longitude, p.Score})
	}
	_, err := db.Replace(ctx, s.pool, "city_points",
		[]string{"position", "id", "name", "latitude", "longitude", "score"}, rows)
	return eris.Wrap(err, "postgres: replace points")
}

func (s *PostgresStore) ReplaceMetadata(ctx context.Context, metas []model.CityMetadata) error {
	rows := make([][]any, 0, len(metas))
	for i, m := range metas {
		data, err := json.Marshal(m)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal metadata %s", m.City)
		}
		rows = append(rows, []any{i, m.City, string(data)})
	}
	_, err := db.Replace(ctx, s.pool, "city_metadata", []string{"position", "city", "data"}, rows)
	return eris.Wrap(err, "postgres: replace metadata")
}

func (s *PostgresStore) ReplaceImages(ctx context.Context, images []model.CityImage) error {
	rows := make([][]any, 0, len(images))
	for i, img := range images {
		rows = append(rows, []any{uuid.New().String(), i, img.City, img.ImageURL})
	}
	_, err := db.Replace(ctx, s.pool, "city_images", []string{"id", "position", "city", "image_url"}, rows)
	return eris.Wrap(err, "postgres: replace images")
}

func (s *PostgresStore) ReplaceNews(ctx context.Context, news map[string][]model.NewsItem) error {
	var rows [][]any
	for city, items := range news {
		for i, n := range items {
			rows = append(rows, []any{uuid.New().String(), city, i, n.Title, n.Description, n.Link})
		}
	}
	_, err := db.Replace(ctx, s.pool, "city_news",
		[]string{"id", "city", "position", "title", "description", "link"}, rows)
	return eris.Wrap(err, "postgres: replace news")
}

func (s *PostgresStore) SaveBorder(ctx context.Context, border *geo.Border) error {
	data, err := json.Marshal(border)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal border")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO region_border (name, geojson, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET geojson = EXCLUDED.geojson, updated_at = EXCLUDED.updated_at`,
		borderName, string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save border")
}

func (s *PostgresStore) Points(ctx context.Context) ([]model.CityPoint, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_points"])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list points")
	}
	defer rows.Close()

	var out []model.CityPoint
	for rows.Next() {
		var p model.CityPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate points")
}

func (s *PostgresStore) Metadata(ctx context.Context) ([]model.CityMetadata, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_metadata"])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metadata")
	}
	defer rows.Close()

	var out []model.CityMetadata
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metadata")
		}
		var m model.CityMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metadata")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate metadata")
}

func (s *PostgresStore) Images(ctx context.Context) ([]model.CityImage, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_images"])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list images")
	}
	defer rows.Close()

	var out []model.CityImage
	for rows.Next() {
		var img model.CityImage
		if err := rows.Scan(&img.City, &img.ImageURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan image")
		}
		out = append(out, img)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate images")
}

func (s *PostgresStore) News(ctx context.Context) (map[string][]model.NewsItem, error) {
	rows, err := s.pool.Query(ctx, preparedStatements["list_news"])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list news")
	}
	defer rows.Close()

	out := make(map[string][]model.NewsItem)
	for rows.Next() {
		var city string
		var n model.NewsItem
		if err := rows.Scan(&city, &n.Title, &n.Description, &n.Link); err != nil {
			return nil, eris.Wrap(err, "postgres: scan news")
		}
		out[city] = append(out[city], n)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate news")
}

func (s *PostgresStore) Border(ctx context.Context) (*geo.Border, error) {
	var data string
	err := s.pool.QueryRow(ctx, preparedStatements["get_border"], borderName).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNoBorder()
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get border")
	}
	return geo.ParseBorder(strings.NewReader(data))
}
