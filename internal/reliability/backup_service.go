// Package reliability provides local and cloud backups of the
// signalboard databases plus periodic maintenance jobs.
package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/database"
)

const dailyBackupsToKeep = 14

// BackupService manages local snapshot backups of the SQLite databases
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, backupDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// GetDatabaseNames returns the registered database names in a stable
// order. The client_data cache is excluded unless includeCache is set;
// its contents are rebuildable from the upstream APIs.
func (s *BackupService) GetDatabaseNames(includeCache bool) []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		if !includeCache && name == "client_data" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase writes an atomic snapshot of one database to
// backupPath using VACUUM INTO, then verifies its integrity.
func (s *BackupService) BackupDatabase(name, backupPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %s not found", name)
	}

	// VACUUM INTO produces a fresh copy without WAL files
	if _, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return fmt.Errorf("VACUUM INTO failed for %s: %w", name, err)
	}

	if err := s.verifyBackup(backupPath); err != nil {
		_ = os.Remove(backupPath)
		return fmt.Errorf("backup verification failed for %s: %w", name, err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", name).
		Float64("size_mb", float64(info.Size())/1024/1024).
		Msg("Backup created")

	return nil
}

// DailyBackup snapshots every non-cache database into a dated
// directory and rotates snapshots beyond the retention window.
func (s *BackupService) DailyBackup() error {
	s.log.Info().Msg("Starting daily backup")
	startTime := time.Now()

	date := time.Now().Format("2006-01-02")
	dailyDir := filepath.Join(s.backupDir, "daily", date)
	if err := os.MkdirAll(dailyDir, 0755); err != nil {
		return fmt.Errorf("failed to create daily backup directory: %w", err)
	}

	for _, name := range s.GetDatabaseNames(false) {
		backupPath := filepath.Join(dailyDir, name+".db")
		if err := s.BackupDatabase(name, backupPath); err != nil {
			s.log.Error().Str("database", name).Err(err).Msg("Failed to backup database")
			// Continue with the other databases
		}
	}

	if err := s.rotateDailyBackups(); err != nil {
		s.log.Error().Err(err).Msg("Failed to rotate daily backups")
		// The backup itself succeeded
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("backup_dir", dailyDir).
		Msg("Daily backup completed")

	return nil
}

// verifyBackup runs a SQLite integrity check against a backup file
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// rotateDailyBackups deletes dated directories beyond the retention window
func (s *BackupService) rotateDailyBackups() error {
	dailyRoot := filepath.Join(s.backupDir, "daily")
	entries, err := os.ReadDir(dailyRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			dates = append(dates, entry.Name())
		}
	}
	if len(dates) <= dailyBackupsToKeep {
		return nil
	}

	// Directory names are YYYY-MM-DD, so the sort is chronological
	sort.Strings(dates)
	for _, date := range dates[:len(dates)-dailyBackupsToKeep] {
		path := filepath.Join(dailyRoot, date)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn().Str("path", path).Err(err).Msg("Failed to remove old backup")
			continue
		}
		s.log.Info().Str("path", path).Msg("Removed old daily backup")
	}
	return nil
}
