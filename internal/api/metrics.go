package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Process       *ProcessMetrics `json:"process,omitempty"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          BackendMetrics  `json:"mqtt"`
	InfluxDB      BackendMetrics  `json:"influxdb"`
	Relay         RelayMetrics    `json:"relay"`
	Store         StoreMetrics    `json:"store"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// ProcessMetrics contains operating-system view of this process.
type ProcessMetrics struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSMB      float64 `json:"rss_mb"`
	OpenFiles  int32   `json:"open_fds,omitempty"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// BackendMetrics reports an optional backend.
type BackendMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// RelayMetrics contains notification fan-out statistics.
type RelayMetrics struct {
	Dropped uint64 `json:"dropped"`
}

// StoreMetrics counts the entities the manager holds.
type StoreMetrics struct {
	Slices       int    `json:"slices"`
	Components   int    `json:"components"`
	Scenes       int    `json:"scenes"`
	Playbacks    int    `json:"playbacks"`
	ActiveScene  string `json:"active_scene"`
	HistoryIndex int    `json:"history_index"`
	HistoryLen   int    `json:"history_length"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Process: s.processMetrics(),
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		MQTT:     backendMetrics(s.mqtt),
		InfluxDB: backendMetrics(s.influx),
	}

	if s.relay != nil {
		metrics.Relay.Dropped = s.relay.Dropped()
	}

	hist := s.manager.HistoryState()
	metrics.Store = StoreMetrics{
		Slices:       len(s.manager.Slices()),
		Components:   len(s.manager.Components()),
		Scenes:       len(s.manager.Scenes()),
		Playbacks:    len(s.manager.Playbacks()),
		HistoryIndex: hist.Index,
		HistoryLen:   hist.Length,
	}
	if sc := s.manager.ActiveScene(); sc != nil {
		metrics.Store.ActiveScene = sc.ID
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

// processMetrics samples this process through gopsutil. It returns nil
// when the platform exposes nothing.
func (s *Server) processMetrics() *ProcessMetrics {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		s.logger.Debug("process metrics unavailable", "error", err)
		return nil
	}

	var pm ProcessMetrics
	if cpu, err := proc.CPUPercent(); err == nil {
		pm.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		pm.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	if fds, err := proc.NumFDs(); err == nil {
		pm.OpenFiles = fds
	}
	return &pm
}

func backendMetrics(b ConnectionStatus) BackendMetrics {
	if b == nil {
		return BackendMetrics{}
	}
	return BackendMetrics{Enabled: true, Connected: b.IsConnected()}
}
