// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lookout/internal/geo"
	"github.com/hyperjump/lookout/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL,
		type TEXT NOT NULL,
		alias TEXT,
		name TEXT NOT NULL,
		text TEXT,
		media_path TEXT,
		date TIMESTAMP,
		lat REAL,
		lon REAL,
		tags TEXT,
		detached INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
	CREATE INDEX IF NOT EXISTS idx_nodes_updated_at ON nodes(updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertNode inserts or replaces a node, refreshing its timestamps.
func (s *SQLiteStorage) UpsertNode(ctx context.Context, node *models.Node) error {
	tagsJSON, err := encodeTags(node.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	var lat, lon sql.NullFloat64
	if node.Location != nil {
		lat = sql.NullFloat64{Float64: node.Location.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: node.Location.Lon, Valid: true}
	}
	var date sql.NullTime
	if node.Date != nil {
		date = sql.NullTime{Time: *node.Date, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO nodes (id, key, type, alias, name, text, media_path, date, lat, lon, tags, detached, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			key = excluded.key, type = excluded.type, alias = excluded.alias,
			name = excluded.name, text = excluded.text, media_path = excluded.media_path,
			date = excluded.date, lat = excluded.lat, lon = excluded.lon,
			tags = excluded.tags, detached = excluded.detached, updated_at = excluded.updated_at`,
		node.ID, node.Key.String(), string(node.Type), node.Alias, node.Name, node.Text,
		node.MediaPath, date, lat, lon, tagsJSON, boolToInt(node.Detached),
		node.CreatedAt, node.UpdatedAt,
	)
	return err
}

// GetNode returns a node by ID.
func (s *SQLiteStorage) GetNode(ctx context.Context, id string) (*models.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, key, type, alias, name, text, media_path, date, lat, lon, tags, detached, created_at, updated_at
		 FROM nodes WHERE id = ?`, id,
	)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return node, err
}

// DeleteNode removes a node by ID.
func (s *SQLiteStorage) DeleteNode(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	return err
}

// ListNodes returns nodes with offset and limit, most recently updated first.
func (s *SQLiteStorage) ListNodes(ctx context.Context, offset, limit int) ([]*models.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, type, alias, name, text, media_path, date, lat, lon, tags, detached, created_at, updated_at
		 FROM nodes ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// CountNodes returns the total number of stored nodes.
func (s *SQLiteStorage) CountNodes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		node     models.Node
		key      string
		nodeType string
		date     sql.NullTime
		lat, lon sql.NullFloat64
		tagsJSON sql.NullString
		detached int
	)
	err := row.Scan(&node.ID, &key, &nodeType, &node.Alias, &node.Name, &node.Text,
		&node.MediaPath, &date, &lat, &lon, &tagsJSON, &detached,
		&node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parsed, err := uuid.Parse(key); err == nil {
		node.Key = parsed
	}
	node.Type = models.NodeType(nodeType)
	if date.Valid {
		d := date.Time
		node.Date = &d
	}
	if lat.Valid && lon.Valid {
		node.Location = &geo.Location{Lat: lat.Float64, Lon: lon.Float64}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		tags, err := decodeTags(tagsJSON.String)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
		node.Tags = tags
	}
	node.Detached = detached != 0
	return &node, nil
}

// Tags persist as a JSON array of their serialized "group:name" forms, the
// same encoding the index stores.
func encodeTags(tags []models.Tag) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	raw := make([]string, 0, len(tags))
	for _, tag := range tags {
		raw = append(raw, tag.Encode())
	}
	data, err := json.Marshal(raw)
	return string(data), err
}

func decodeTags(data string) ([]models.Tag, error) {
	var raw []string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(raw))
	for _, r := range raw {
		tags = append(tags, models.NewTag(r))
	}
	return tags, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
