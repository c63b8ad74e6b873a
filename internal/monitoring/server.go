package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringServer exposes ops stats on a side port, separate from the API
// so infrastructure probes never compete with session commands.
type MonitoringServer struct {
	db   *pgxpool.Pool
	port int
}

type Stats struct {
	DatabaseStatus    string  `json:"database_status"`
	ResponseTime      int64   `json:"response_time_ms"`
	ActiveConnections int     `json:"active_connections"`
	DBSize            string  `json:"db_size"`
	Uptime            string  `json:"uptime"`
	OpenShifts        int     `json:"open_shifts"`
	OpenCleanings     int     `json:"open_cleanings"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	MemoryUsed        string  `json:"memory_used"`
	MemoryTotal       string  `json:"memory_total"`
	DiskPercent       float64 `json:"disk_percent"`
	DiskUsed          string  `json:"disk_used"`
	DiskTotal         string  `json:"disk_total"`
}

func NewMonitoringServer(db *pgxpool.Pool, port int) *MonitoringServer {
	return &MonitoringServer{db: db, port: port}
}

func (ms *MonitoringServer) Start() {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")

	addr := fmt.Sprintf(":%d", ms.port)
	log.Printf("Monitoring server running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ms.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	dbStatus := "healthy"
	if err != nil {
		dbStatus = "unhealthy"
	}

	var activeConns int
	ms.db.QueryRow(ctx, "SELECT count(*) FROM pg_stat_activity").Scan(&activeConns)

	var dbSizeBytes int64
	ms.db.QueryRow(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSizeBytes)
	dbSize := fmt.Sprintf("%.2f MB", float64(dbSizeBytes)/(1024*1024))

	var uptimeSec int
	ms.db.QueryRow(ctx, "SELECT EXTRACT(EPOCH FROM (NOW() - pg_postmaster_start_time()))::int").Scan(&uptimeSec)

	var openShifts, openCleanings int
	ms.db.QueryRow(ctx,
		`SELECT count(*) FROM activity_events WHERE kind='shift_start' AND status IN ('active','paused')`,
	).Scan(&openShifts)
	ms.db.QueryRow(ctx,
		`SELECT count(*) FROM activity_events WHERE kind='cleaning_start' AND status IN ('active','paused')`,
	).Scan(&openCleanings)

	cpuPercents, _ := cpu.Percent(time.Second, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	return Stats{
		DatabaseStatus:    dbStatus,
		ResponseTime:      responseTime,
		ActiveConnections: activeConns,
		DBSize:            dbSize,
		Uptime:            formatUptime(uptimeSec),
		OpenShifts:        openShifts,
		OpenCleanings:     openCleanings,
		CPUPercent:        cpuPercent,
		MemoryPercent:     memStats.UsedPercent,
		MemoryUsed:        formatBytes(memStats.Used),
		MemoryTotal:       formatBytes(memStats.Total),
		DiskPercent:       diskStats.UsedPercent,
		DiskUsed:          formatBytes(diskStats.Used),
		DiskTotal:         formatBytes(diskStats.Total),
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatUptime(seconds int) string {
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
