package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/config"
	"github.com/newthinker/strata/internal/core"
)

// Open builds the storage backend named by cfg.Type.
func Open(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.Errorf(core.ErrConfigInvalid, "unknown archive type %q", cfg.Type)
	}
}

// Reports stores JSON reports under <strategy>/<YYYY-MM-DD>/<run-id>.json.
type Reports struct {
	store  Storage
	logger *zap.Logger
}

// NewReports wraps a storage backend
func NewReports(store Storage, logger *zap.Logger) *Reports {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reports{store: store, logger: logger}
}

// ReportPath returns the archive path of a run.
func ReportPath(strategy, runID string, at time.Time) string {
	return path.Join(sanitize(strategy), at.UTC().Format("2006-01-02"), sanitize(runID)+".json")
}

// Save encodes v as indented JSON and writes it. Returns the path written.
func (r *Reports) Save(ctx context.Context, strategy, runID string, at time.Time, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	p := ReportPath(strategy, runID, at)
	if err := r.store.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("writing report %s: %w", p, err)
	}

	r.logger.Debug("report archived", zap.String("path", p), zap.Int("bytes", len(data)))
	return p, nil
}

// Load reads the report at p into v.
func (r *Reports) Load(ctx context.Context, p string, v any) error {
	data, err := r.store.Read(ctx, p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding report %s: %w", p, err)
	}
	return nil
}

// List returns the archived report paths of a strategy, or of all strategies
// when strategy is empty.
func (r *Reports) List(ctx context.Context, strategy string) ([]string, error) {
	prefix := ""
	if strategy != "" {
		prefix = sanitize(strategy) + "/"
	}
	paths, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	reports := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			reports = append(reports, p)
		}
	}
	return reports, nil
}

// sanitize keeps a path segment free of separators and dot segments.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
