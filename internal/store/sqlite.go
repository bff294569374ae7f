package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stillmind-app/stillmind/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all access through Go's pool, preventing "database is
	// locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Credential ---

func (s *SQLiteStore) SaveCredential(ctx context.Context, token string, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credential (id, token, name, email, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token=excluded.token, name=excluded.name, email=excluded.email, updated_at=excluded.updated_at`,
		token, user.Name, user.Email, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Credential(ctx context.Context) (string, models.User, error) {
	var token string
	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT token, name, email FROM credential WHERE id = 1",
	).Scan(&token, &user.Name, &user.Email)
	if err == sql.ErrNoRows {
		return "", models.User{}, nil
	}
	if err != nil {
		return "", models.User{}, fmt.Errorf("get credential: %w", err)
	}
	return token, user, nil
}

func (s *SQLiteStore) AuthToken(ctx context.Context) (string, error) {
	token, _, err := s.Credential(ctx)
	return token, err
}

func (s *SQLiteStore) ClearCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credential WHERE id = 1"); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// --- Session journal ---

func (s *SQLiteStore) AppendSession(ctx context.Context, rec *models.SessionRecord, synced bool) error {
	if rec.ID == "" {
		rec.ID = newULID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, minutes, meditation_id, title, date, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Minutes, rec.MeditationID, rec.Title, rec.Date, boolToInt(synced), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*models.SessionRecord, error) {
	query := "SELECT id, minutes, meditation_id, title, date FROM sessions ORDER BY date DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.SessionRecord
	for rows.Next() {
		rec := &models.SessionRecord{}
		if err := rows.Scan(&rec.ID, &rec.Minutes, &rec.MeditationID, &rec.Title, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// --- Stats cache ---

func (s *SQLiteStore) SaveStatsView(ctx context.Context, view models.StatsView) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode stats view: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stats_cache (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save stats cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LastStatsView(ctx context.Context) (*models.StatsView, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM stats_cache WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stats cache: %w", err)
	}
	view := &models.StatsView{}
	if err := json.Unmarshal([]byte(payload), view); err != nil {
		return nil, fmt.Errorf("decode stats cache: %w", err)
	}
	return view, nil
}
