package galengine

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database and provides CRUD operations for gallery
// records and translation overrides.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS galleries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    password TEXT NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    photos_path TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS translations (
    locale TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (locale, key)
);
`)
	return err
}

// ListGalleries returns all galleries ordered by creation date descending.
func (s *Store) ListGalleries() ([]Gallery, error) {
	rows, err := s.db.Query(`SELECT id, title, password, date, photos_path, created_at FROM galleries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var galleries []Gallery
	for rows.Next() {
		var g Gallery
		if err := rows.Scan(&g.ID, &g.Title, &g.Password, &g.Date, &g.PhotosPath, &g.CreatedAt); err != nil {
			return nil, err
		}
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

// GetGallery returns a single gallery by id.
func (s *Store) GetGallery(id int) (Gallery, error) {
	g := Gallery{ID: id}
	err := s.db.QueryRow(`SELECT title, password, date, photos_path, created_at FROM galleries WHERE id = ?`, id).
		Scan(&g.Title, &g.Password, &g.Date, &g.PhotosPath, &g.CreatedAt)
	if err != nil {
		return Gallery{}, err
	}
	return g, nil
}

// FindGalleryByTitle returns the first gallery matching title exactly.
func (s *Store) FindGalleryByTitle(title string) (Gallery, error) {
	var g Gallery
	err := s.db.QueryRow(`SELECT id, title, password, date, photos_path, created_at FROM galleries WHERE title = ? ORDER BY id LIMIT 1`, title).
		Scan(&g.ID, &g.Title, &g.Password, &g.Date, &g.PhotosPath, &g.CreatedAt)
	if err != nil {
		return Gallery{}, err
	}
	return g, nil
}

// SaveGallery inserts a new gallery (ID == 0) or updates an existing one.
// It returns the stored record with its assigned id.
func (s *Store) SaveGallery(g Gallery) (Gallery, error) {
	if g.CreatedAt == "" {
		g.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if g.ID == 0 {
		res, err := s.db.Exec(`INSERT INTO galleries (title, password, date, photos_path, created_at) VALUES (?, ?, ?, ?, ?)`,
			g.Title, g.Password, g.Date, g.PhotosPath, g.CreatedAt)
		if err != nil {
			return Gallery{}, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Gallery{}, err
		}
		g.ID = int(id)
		return g, nil
	}
	_, err := s.db.Exec(`UPDATE galleries SET title = ?, password = ?, date = ?, photos_path = ? WHERE id = ?`,
		g.Title, g.Password, g.Date, g.PhotosPath, g.ID)
	return g, err
}

// DeleteGallery removes a gallery record by id. The photo folder on disk is
// left alone.
func (s *Store) DeleteGallery(id int) error {
	_, err := s.db.Exec(`DELETE FROM galleries WHERE id = ?`, id)
	return err
}

// ListTranslations returns all stored overrides, optionally filtered to one
// locale, ordered by locale then key.
func (s *Store) ListTranslations(locale string) ([]Translation, error) {
	var rows *sql.Rows
	var err error
	if locale == "" {
		rows, err = s.db.Query(`SELECT locale, key, value FROM translations ORDER BY locale, key`)
	} else {
		rows, err = s.db.Query(`SELECT locale, key, value FROM translations WHERE locale = ? ORDER BY key`, locale)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.Locale, &t.Key, &t.Value); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveTranslation upserts one locale message override.
func (s *Store) SaveTranslation(t Translation) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO translations (locale, key, value) VALUES (?, ?, ?)`,
		t.Locale, t.Key, t.Value)
	return err
}
