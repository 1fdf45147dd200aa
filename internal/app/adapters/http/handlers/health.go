package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status     string  `json:"status"`
	Uptime     string  `json:"uptime"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   uint64  `json:"memory_mb"`
	Goroutines int     `json:"goroutines"`
}

func (h *Handlers) HealthHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := healthResponse{
		Status:     "ok",
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		MemoryMB:   m.Sys / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		resp.CPUPercent = percent[0]
	}

	c.JSON(http.StatusOK, resp)
}
