package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

type dialect struct {
	driver     string
	migrations string
	numbered   bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite", migrations: "migrations/sqlite"}
	postgresDialect = dialect{driver: "pgx", migrations: "migrations/postgres", numbered: true}
)

// bind rewrites ? placeholders to $n for drivers that need numbered parameters.
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

type AuditLog struct {
	ID        int64
	GuildID   string
	ChannelID string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

// New opens the audit store. A postgres:// or postgresql:// DSN selects Postgres,
// anything else is treated as a SQLite path.
func New(dsn string) (*Store, error) {
	d := sqliteDialect
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d = postgresDialect
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d == sqliteDialect {
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir(s.dialect.migrations)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join(s.dialect.migrations, file))
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(content), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := s.db.Exec(stmt); err != nil {
				if isIgnorableMigrationError(err) {
					continue
				}
				return fmt.Errorf("migration %s failed: %w", file, err)
			}
		}
	}
	return nil
}

func (s *Store) AddAuditLog(ctx context.Context, log AuditLog) error {
	_, err := s.db.ExecContext(ctx, s.dialect.bind(`
		INSERT INTO audit_logs (guild_id, channel_id, user_id, level, event, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), log.GuildID, log.ChannelID, log.UserID, log.Level, log.Event, log.Details, log.CreatedAt.Unix())
	return err
}

// ListAuditLogs returns entries newer than since, newest first. An empty guildID
// lists every guild.
func (s *Store) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.bind(`
		SELECT id, guild_id, channel_id, user_id, level, event, details, created_at
		FROM audit_logs
		WHERE (? = '' OR guild_id = ?) AND created_at >= ?
		ORDER BY created_at DESC, id DESC
	`), guildID, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var log AuditLog
		var created int64
		if err := rows.Scan(&log.ID, &log.GuildID, &log.ChannelID, &log.UserID, &log.Level, &log.Event, &log.Details, &created); err != nil {
			return nil, err
		}
		log.CreatedAt = time.Unix(created, 0)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) CleanupAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM audit_logs WHERE created_at < ?`), cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
