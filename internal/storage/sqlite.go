package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for learner profiles and
// conversation messages.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "mentorbridge.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so a second session for the same learner waits briefly
	// instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been
// run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in
// ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Profiles ---

// SaveProfile upserts a profile row keyed by learner name, overwriting every
// field and refreshing updated_at. Saving with an empty learner name is a
// silent no-op: anonymous profiles are never persisted.
func (s *Store) SaveProfile(p Profile) error {
	if p.LearnerName == "" {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO profiles (learner_name, education_level, skills, interests, language,
			ai_data_interest, device_access, time_per_week_hours, math_comfort,
			problem_solving_confidence, english_comfort, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_name) DO UPDATE SET
			education_level = excluded.education_level,
			skills = excluded.skills,
			interests = excluded.interests,
			language = excluded.language,
			ai_data_interest = excluded.ai_data_interest,
			device_access = excluded.device_access,
			time_per_week_hours = excluded.time_per_week_hours,
			math_comfort = excluded.math_comfort,
			problem_solving_confidence = excluded.problem_solving_confidence,
			english_comfort = excluded.english_comfort,
			updated_at = excluded.updated_at`,
		p.LearnerName, p.EducationLevel, joinList(p.Skills), joinList(p.Interests), p.Language,
		p.AIDataInterest, p.DeviceAccess, nullableInt(p.TimePerWeekHours), nullableInt(p.MathComfort),
		nullableInt(p.ProblemSolvingConfidence), nullableInt(p.EnglishComfort), now,
	)
	return err
}

// GetProfile returns the stored profile for the given learner, or ErrNotFound
// if no row exists.
func (s *Store) GetProfile(learnerName string) (Profile, error) {
	var p Profile
	var skills, interests, updatedAt string
	var hours, math, solving, english sql.NullInt64
	err := s.db.QueryRow(`
		SELECT learner_name, education_level, skills, interests, language,
			ai_data_interest, device_access, time_per_week_hours, math_comfort,
			problem_solving_confidence, english_comfort, updated_at
		FROM profiles WHERE learner_name = ?`, learnerName,
	).Scan(&p.LearnerName, &p.EducationLevel, &skills, &interests, &p.Language,
		&p.AIDataInterest, &p.DeviceAccess, &hours, &math, &solving, &english, &updatedAt)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}

	p.Skills = splitList(skills)
	p.Interests = splitList(interests)
	p.TimePerWeekHours = intPointer(hours)
	p.MathComfort = intPointer(math)
	p.ProblemSolvingConfidence = intPointer(solving)
	p.EnglishComfort = intPointer(english)

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	p.UpdatedAt = t
	return p, nil
}

// --- Messages ---

// AppendMessage adds a turn to the end of the learner's history. Appending
// with an empty learner name is a silent no-op: anonymous conversations stay
// transient.
func (s *Store) AppendMessage(m Message) error {
	if m.LearnerName == "" {
		return nil
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (learner_name, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		m.LearnerName, m.Role, m.Content, createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetMessages returns the full history for a learner, oldest first. Returns an
// empty slice when no history exists.
func (s *Store) GetMessages(learnerName string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, learner_name, role, content, created_at
		FROM messages WHERE learner_name = ? ORDER BY id ASC`, learnerName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.LearnerName, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		m.CreatedAt = t
		results = append(results, m)
	}
	return results, rows.Err()
}

// joinList comma-joins a list for storage. Values in the fixed option sets
// never contain commas themselves.
func joinList(values []string) string {
	return strings.Join(values, ",")
}

// splitList reverses joinList, discarding empty segments.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
