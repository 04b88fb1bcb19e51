package httptransport

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"quill-server-go/internal/domain/session/store"
	"quill-server-go/internal/platform/storage"
)

// AdminHandler serves operational endpoints restricted to administrators.
type AdminHandler struct {
	Users     *storage.UserRepository
	CredStore store.Store
	StartedAt time.Time
}

// System reports process and host health. Metric collection errors degrade
// individual fields to zero values instead of failing the endpoint.
func (h *AdminHandler) System(c *gin.Context) {
	ctx := c.Request.Context()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	summary := gin.H{
		"uptime":     time.Since(h.StartedAt).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"heapMB":     memStats.HeapAlloc / 1024 / 1024,
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		summary["cpuPercent"] = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		summary["memUsedPercent"] = vm.UsedPercent
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		summary["hostname"] = info.Hostname
		summary["os"] = info.Platform
		summary["hostUptime"] = (time.Duration(info.Uptime) * time.Second).String()
	}

	if users, err := h.Users.Count(ctx); err == nil {
		summary["users"] = users
	}
	if creds, err := h.CredStore.Stats(ctx); err == nil {
		summary["liveCredentials"] = creds
	}

	RespondSuccess(c, http.StatusOK, summary, "")
}
