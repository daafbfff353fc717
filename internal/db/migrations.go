package db

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	version int
	name    string
	up      string
	down    string
}

// Migrate applies all pending migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return d.migrate(ctx, false)
}

// Rollback rolls back all applied migrations.
func (d *DB) Rollback(ctx context.Context) error {
	return d.migrate(ctx, true)
}

// Version returns the highest applied migration version.
func (d *DB) Version(ctx context.Context) (int, error) {
	version, _, err := d.currentVersion(ctx)
	return version, err
}

func (d *DB) currentVersion(ctx context.Context) (version int, dirty bool, err error) {
	_, err = d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return 0, false, fmt.Errorf("create migrations table: %w", err)
	}

	var dirtyFlag int
	err = d.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0), COALESCE(MAX(dirty), 0) FROM schema_migrations`).Scan(&version, &dirtyFlag)
	if err != nil {
		return 0, false, fmt.Errorf("get current version: %w", err)
	}
	return version, dirtyFlag != 0, nil
}

func loadMigrations() (map[int]*migration, []int, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("read migrations directory: %w", err)
	}

	migrations := make(map[int]*migration)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		var version int
		var suffix string
		if _, err := fmt.Sscanf(name, "%d_%s", &version, &suffix); err != nil {
			continue
		}
		if migrations[version] == nil {
			migrations[version] = &migration{version: version}
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		switch {
		case strings.HasSuffix(name, ".up.sql"):
			migrations[version].up = string(content)
			migrations[version].name = strings.TrimSuffix(name, ".up.sql")
		case strings.HasSuffix(name, ".down.sql"):
			migrations[version].down = string(content)
		}
	}

	var versions []int
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return migrations, versions, nil
}

func (d *DB) migrate(ctx context.Context, down bool) error {
	currentVersion, dirty, err := d.currentVersion(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d, manual intervention required", currentVersion)
	}

	migrations, versions, err := loadMigrations()
	if err != nil {
		return err
	}

	if down {
		sort.Sort(sort.Reverse(sort.IntSlice(versions)))
		for _, v := range versions {
			if v > currentVersion {
				continue
			}
			m := migrations[v]
			if m.down == "" {
				return fmt.Errorf("no down migration for version %d", v)
			}
			if err := d.step(ctx, v, m.down, true); err != nil {
				return err
			}
			slog.Debug("migration rolled back", "version", v, "name", m.name)
		}
		return nil
	}

	for _, v := range versions {
		if v <= currentVersion {
			continue
		}
		m := migrations[v]
		if m.up == "" {
			return fmt.Errorf("no up migration for version %d", v)
		}
		if err := d.step(ctx, v, m.up, false); err != nil {
			return err
		}
		slog.Debug("migration applied", "version", v, "name", m.name)
	}
	return nil
}

// step runs one migration, leaving the version marked dirty if it fails.
func (d *DB) step(ctx context.Context, version int, script string, down bool) error {
	if _, err := d.db.ExecContext(ctx, `INSERT OR REPLACE INTO schema_migrations (version, dirty) VALUES (?, 1)`, version); err != nil {
		return fmt.Errorf("mark version %d as dirty: %w", version, err)
	}

	if _, err := d.db.ExecContext(ctx, script); err != nil {
		direction := "up"
		if down {
			direction = "down"
		}
		return fmt.Errorf("run %s migration %d: %w", direction, version, err)
	}

	if down {
		if _, err := d.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
			return fmt.Errorf("remove version %d: %w", version, err)
		}
		return nil
	}
	if _, err := d.db.ExecContext(ctx, `UPDATE schema_migrations SET dirty = 0 WHERE version = ?`, version); err != nil {
		return fmt.Errorf("mark version %d as clean: %w", version, err)
	}
	return nil
}
