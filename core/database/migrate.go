package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/gatekeeper/core/logger"
)

const previewFiles = 6

// upFile is one "<version>_<name>.up.sql" entry of the migrations directory.
type upFile struct {
	name    string
	version uint64
}

// upFiles is sorted by file name, which orders zero-padded versions.
type upFiles []upFile

// RunMigrations applies pending up migrations from cfg.MigrationsDir.
// It expects Connect to have confirmed the database is reachable.
func RunMigrations(cfg Config) error {
	dir, err := migrationsDir(cfg.MigrationsDir)
	if err != nil {
		logger.MIG.Error("cwd lookup failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return fmt.Errorf("resolve migrations dir: %w", err)
	}

	files := scanUpFiles(dir)
	logger.MIG.Debug("migrations resolved",
		append([]any{slog.String("event", "resolve"), slog.String("path", dir)}, files.preview()...)...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer closeMigrator(m)

	from, _, _ := m.Version()
	started := time.Now()
	upErr := m.Up()
	took := logger.RoundMS(time.Since(started))

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	to := from
	if upErr == nil {
		to, _, _ = m.Version()
	}
	applied := files.between(uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.MIG.Debug("applied files", append([]any{slog.String("event", "apply")}, applied.preview()...)...)
	}

	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.MIG.Warn("close failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
	}
}

// migrationsDir makes dir absolute against the working directory.
func migrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = defaultMigrationsDir
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// scanUpFiles lists up migrations in dir. A missing dir yields none;
// migrate.New reports that case itself.
func scanUpFiles(dir string) upFiles {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out upFiles
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		out = append(out, upFile{name: name, version: versionOf(name)})
	}
	slices.SortFunc(out, func(a, b upFile) int { return strings.Compare(a.name, b.name) })
	return out
}

func versionOf(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

// between returns the files in the half-open version range (from, to].
func (fs upFiles) between(from, to uint64) upFiles {
	var out upFiles
	for _, f := range fs {
		if f.version > from && f.version <= to {
			out = append(out, f)
		}
	}
	return out
}

func (fs upFiles) names() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

func (fs upFiles) preview() []any {
	args := []any{slog.Int("files_total", len(fs))}
	head, truncated := logger.SummarizeStrings(fs.names(), previewFiles)
	if head != "" {
		args = append(args, slog.String("files_preview", head))
	}
	if truncated {
		args = append(args, slog.Bool("files_truncated", true))
	}
	return args
}
