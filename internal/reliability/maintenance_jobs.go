package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/database"
)

// DailyMaintenanceJob checkpoints the WAL files, snapshots the
// databases locally and checks disk headroom.
type DailyMaintenanceJob struct {
	databases     map[string]*database.DB
	backupService *BackupService
	dataDir       string
	log           zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(
	databases map[string]*database.DB,
	backupService *BackupService,
	dataDir string,
	log zerolog.Logger,
) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases:     databases,
		backupService: backupService,
		dataDir:       dataDir,
		log:           log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Str("database", name).Err(err).Msg("WAL checkpoint failed")
			// Not critical, the checkpoint runs again tomorrow
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	if err := j.backupService.DailyBackup(); err != nil {
		return fmt.Errorf("daily backup failed: %w", err)
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")

	return nil
}

// Name returns the job name for the scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// checkDiskSpace fails hard when the data volume is nearly full, so
// the next backup cannot wedge the databases mid-write.
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < 0.5 {
		return fmt.Errorf("only %.2f GB free on data volume", availableGB)
	}
	return nil
}

// CloudBackupJob ships an archive of the databases to R2 and rotates
// old copies.
type CloudBackupJob struct {
	r2Backup      *R2BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewCloudBackupJob creates a new cloud backup job
func NewCloudBackupJob(r2Backup *R2BackupService, retentionDays int, log zerolog.Logger) *CloudBackupJob {
	return &CloudBackupJob{
		r2Backup:      r2Backup,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cloud_backup").Logger(),
	}
}

// Run executes the cloud backup job
func (j *CloudBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := j.r2Backup.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.r2Backup.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Error().Err(err).Msg("Backup rotation failed")
		// The upload itself succeeded
	}
	return nil
}

// Name returns the job name for the scheduler
func (j *CloudBackupJob) Name() string {
	return "cloud_backup"
}
