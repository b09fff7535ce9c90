package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/signalboard/internal/database"
	"github.com/aristath/signalboard/internal/reliability"
	"github.com/aristath/signalboard/internal/version"
)

// SystemHandlers serves system monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases map[string]*database.DB
	r2Backup  *reliability.R2BackupService
	startTime time.Time

	backupRunning atomic.Bool
}

// NewSystemHandlers creates system handlers. r2Backup may be nil when
// cloud backups are not configured.
func NewSystemHandlers(
	dataDir string,
	databases map[string]*database.DB,
	r2Backup *reliability.R2BackupService,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		r2Backup:  r2Backup,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Post("/backup", h.HandleTriggerBackup)
		r.Get("/backups", h.HandleListBackups)
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	diskInfo := map[string]interface{}{}
	if usage, err := disk.Usage(h.dataDir); err == nil {
		diskInfo = map[string]interface{}{
			"total_gb":     float64(usage.Total) / 1e9,
			"free_gb":      float64(usage.Free) / 1e9,
			"used_percent": usage.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	dbStats := make(map[string]interface{}, len(h.databases))
	for name, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Str("database", name).Err(err).Msg("Failed to get database stats")
			continue
		}
		dbStats[name] = map[string]interface{}{
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
			"page_count":     stats.PageCount,
			"freelist_count": stats.FreelistCount,
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"version":        version.Version,
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"cpu_percent":    cpuPercent,
			"ram_percent":    ramPercent,
			"disk":           diskInfo,
			"databases":      dbStats,
			"backup_enabled": h.r2Backup != nil,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerBackup handles POST /api/system/backup. The upload can
// take minutes, so it runs in the background and the request returns
// as soon as it is accepted.
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.r2Backup == nil {
		http.Error(w, "Cloud backup is not configured", http.StatusServiceUnavailable)
		return
	}
	if !h.backupRunning.CompareAndSwap(false, true) {
		http.Error(w, "A backup is already running", http.StatusConflict)
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	go func() {
		defer h.backupRunning.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		if err := h.r2Backup.CreateAndUploadBackup(ctx); err != nil {
			h.log.Error().Err(err).Msg("Manual backup failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"data": map[string]string{"status": "started"},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.r2Backup == nil {
		http.Error(w, "Cloud backup is not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.r2Backup.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"backups": backups,
			"count":   len(backups),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// getSystemStats samples CPU and RAM usage percentages. The short CPU
// window keeps the status endpoint responsive for dashboard polling.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
