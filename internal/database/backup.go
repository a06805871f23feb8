package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camrent/internal/config"
	"github.com/rs/zerolog"
)

const backupPrefix = "camrent_"

// Snapshotter writes a consistent copy of a store to a file.
type Snapshotter interface {
	Backup(ctx context.Context, dest string) error
}

type BackupService struct {
	db       Snapshotter
	config   config.BackupConfig
	interval time.Duration
	dir      string
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBackupService(db Snapshotter, cfg *config.Config, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		db:       db,
		config:   cfg.Backup,
		interval: cfg.BackupInterval(),
		dir:      cfg.BackupPath(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start snapshots the store now and then once per interval, pruning expired
// snapshots after each run. It blocks until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}
	s.logger.Info().Dur("interval", s.interval).Str("dir", s.dir).Msg("backups scheduled")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) cycle(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
	}
	if n := s.CleanupOldBackups(); n > 0 {
		s.logger.Info().Int("removed", n).Msg("expired backups pruned")
	}
}

// PerformBackup writes a new snapshot and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	dest := filepath.Join(s.dir, backupPrefix+s.now().Format("20060102_150405")+".db")
	started := time.Now()
	if err := s.db.Backup(ctx, dest); err != nil {
		return "", err
	}
	s.logger.Info().Str("file", dest).Dur("took", time.Since(started)).Msg("backup written")
	return dest, nil
}

// CleanupOldBackups removes snapshots last modified before the retention
// window and reports how many went. Files without backupPrefix are kept.
func (s *BackupService) CleanupOldBackups() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("list backups")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, e := range entries {
		if !s.expired(e, cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", e.Name()).Msg("remove expired backup")
			continue
		}
		removed++
	}
	return removed
}

func (s *BackupService) expired(e os.DirEntry, cutoff time.Time) bool {
	if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
		return false
	}
	info, err := e.Info()
	return err == nil && info.ModTime().Before(cutoff)
}
