package database

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one versioned pair of SQL scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations []Migration

func init() {
	loaded, err := LoadMigrations(migrationFS, "migrations")
	if err != nil {
		panic(fmt.Sprintf("load embedded migrations: %v", err))
	}
	migrations = loaded
}

// LoadMigrations reads NNNNNN_name.up.sql / .down.sql pairs from dir.
func LoadMigrations(efs embed.FS, dir string) ([]Migration, error) {
	entries, err := efs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", name)
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("migration %s: invalid version: %w", name, err)
		}

		up, err := efs.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read up migration %s: %w", name, err)
		}
		down, err := efs.ReadFile(path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("failed to read down migration for %s: %w", name, err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       parts[1],
			UpScript:   string(up),
			DownScript: string(down),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func GetMigrations() []Migration {
	return migrations
}

func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
