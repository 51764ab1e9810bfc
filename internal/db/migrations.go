package db

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	schema "github.com/terraincognita07/symptomcy/migrations"
	"gorm.io/gorm"
)

var migrationNamePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.sql$`)
var addColumnPattern = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+"?(\w+)"?\s+ADD\s+COLUMN\s+"?(\w+)"?`)

type migration struct {
	Version    int
	Name       string
	Statements []string
}

func embeddedSchema() fs.FS {
	return schema.Files
}

// migrate applies every migration in files whose version is not recorded yet. Each migration runs
// in its own transaction; ADD COLUMN statements for columns that already exist are skipped so a
// database created by an older build can be brought forward.
func migrate(database *gorm.DB, files fs.FS) error {
	if err := database.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	pending, err := readMigrations(files)
	if err != nil {
		return err
	}

	applied := make([]int, 0)
	if err := database.Table("schema_migrations").Pluck("version", &applied).Error; err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	for _, next := range pending {
		if done[next.Version] {
			continue
		}
		if err := database.Transaction(func(tx *gorm.DB) error {
			return applyMigration(tx, next)
		}); err != nil {
			return err
		}
	}
	return nil
}

func readMigrations(files fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]string)
	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationNamePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", entry.Name(), err)
		}
		if previous, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("migration version %d used by both %s and %s", version, previous, entry.Name())
		}
		byVersion[version] = entry.Name()

		raw, err := fs.ReadFile(files, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		statements := sqlStatements(string(raw))
		if len(statements) == 0 {
			return nil, fmt.Errorf("migration %s has no statements", entry.Name())
		}
		migrations = append(migrations, migration{Version: version, Name: entry.Name(), Statements: statements})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func applyMigration(tx *gorm.DB, next migration) error {
	for _, statement := range next.Statements {
		if table, column, ok := addedColumn(statement); ok {
			exists, err := columnExists(tx, table, column)
			if err != nil {
				return fmt.Errorf("migration %s: %w", next.Name, err)
			}
			if exists {
				continue
			}
		}
		if err := tx.Exec(statement).Error; err != nil {
			return fmt.Errorf("migration %s: %q: %w", next.Name, statement, err)
		}
	}

	if err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES (?, ?)`, next.Version, next.Name).Error; err != nil {
		return fmt.Errorf("record migration %s: %w", next.Name, err)
	}
	return nil
}

// sqlStatements splits on semicolons and drops blank statements and "--" comment lines.
func sqlStatements(text string) []string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	statements := make([]string, 0)
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

func addedColumn(statement string) (string, string, bool) {
	matches := addColumnPattern.FindStringSubmatch(statement)
	if matches == nil {
		return "", "", false
	}
	return matches[1], matches[2], true
}

func columnExists(database *gorm.DB, table string, column string) (bool, error) {
	var count int64
	err := database.Raw(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
