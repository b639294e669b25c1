package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every SQL migration in dir: filenames must carry a
// UTC version stamp and snake_case slug, versions must not collide, and
// each file needs both goose direction markers. All problems are reported
// in one pass rather than stopping at the first.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs []error
	byVersion := map[string]string{}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = append(errs, fmt.Errorf("migration %q does not match YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, taken := byVersion[m[1]]; taken {
			errs = append(errs, fmt.Errorf("version %s claimed by both %q and %q", m[1], prev, name))
			continue
		}
		byVersion[m[1]] = name

		if err := checkDirectionMarkers(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}

// checkDirectionMarkers requires the goose Up marker followed by a Down
// marker, so every migration stays reversible.
func checkDirectionMarkers(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	sql := string(b)
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q is missing the goose Up marker", filepath.Base(path))
	case down < 0:
		return fmt.Errorf("migration %q is missing the goose Down marker", filepath.Base(path))
	case down < up:
		return fmt.Errorf("migration %q lists Down before Up", filepath.Base(path))
	}
	return nil
}
