package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/dao"
	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/storage"
)

var startTime = time.Now()

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_mb"`
	Algorithms   int    `json:"algorithms"`
}

// HealthHandler returns server health status
func HealthHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, HealthResponse{
		Status:       "ok",
		Version:      config.Version,
		Uptime:       time.Since(startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     m.Alloc / 1024 / 1024, // MB
		Algorithms:   len(encryption.ListRegistered()),
	})
}

// ReadyHandler reports ready once the store answers and the default user
// has been seeded
func ReadyHandler(store storage.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := store.Count(storage.BucketUsers)
		if err == nil && users == 0 {
			err = dao.ErrUserNotFound
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}

		jobs, err := store.Count(storage.BucketJobs)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "users": users, "jobs": jobs})
	}
}
