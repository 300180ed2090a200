package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const heapWarnBytes = 500 << 20

type StoreChecker interface {
	Ping(ctx context.Context) error
	Count() int
}

type HealthHandler struct {
	store     StoreChecker
	env       string
	version   string
	startedAt time.Time
}

// create a new instance of the health handler
func NewHealthHandler(store StoreChecker, env, version string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{
		store:     store,
		env:       env,
		version:   version,
		startedAt: startedAt,
	}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	status := "ok"
	code := http.StatusOK

	storeCheck := gin.H{"status": "ok"}
	if err := h.store.Ping(ctx.Request.Context()); err != nil {
		status = "error"
		code = http.StatusServiceUnavailable
		storeCheck = gin.H{"status": "error", "error": err.Error()}
	} else {
		storeCheck["users"] = h.store.Count()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	memCheck := gin.H{
		"status":    "ok",
		"heapAlloc": mem.HeapAlloc,
		"sys":       mem.Sys,
	}
	if mem.HeapAlloc > heapWarnBytes {
		memCheck["status"] = "warning"
		if status == "ok" {
			status = "degraded"
		}
	}

	ctx.JSON(code, gin.H{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"uptime":      h.uptime(),
		"environment": h.env,
		"version":     h.version,
		"checks": gin.H{
			"store":  storeCheck,
			"memory": memCheck,
		},
	})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if err := h.store.Ping(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "store": "error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "store": "ok"})
}

func (h *HealthHandler) Livez(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive", "uptime": h.uptime()})
}

// seconds since start
func (h *HealthHandler) uptime() float64 {
	return time.Since(h.startedAt).Seconds()
}
