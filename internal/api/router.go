package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/gainerscout/internal/api/handlers"
	"github.com/wonny/gainerscout/internal/api/ws"
	"github.com/wonny/gainerscout/pkg/logger"
)

// NewRouter wires every endpoint; schedule is nil when no scheduler runs
// in this process
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(health *handlers.HealthHandler, runs *handlers.RunHandler, schedule *handlers.ScheduleHandler, hub *ws.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog(log), recoverPanics(log))

	r.HandleFunc("/health", health.Check).Methods(http.MethodGet)
	r.HandleFunc("/ws/runs", hub.ServeWS).Methods(http.MethodGet)

	// 서브라우터는 메서드 불일치를 404로 응답하므로 전체 경로로 등록 (405 유지)
	r.HandleFunc("/api/runs/latest", runs.GetLatest).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", runs.Trigger).Methods(http.MethodPost)
	r.HandleFunc("/api/runs/{id}/records", runs.GetRecords).Methods(http.MethodGet)
	if schedule != nil {
		r.HandleFunc("/api/schedule", schedule.GetJobs).Methods(http.MethodGet)
		r.HandleFunc("/api/schedule/{job}/history", schedule.GetHistory).Methods(http.MethodGet)
	}

	return r
}

// statusWriter remembers the status code written through it
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Hijack lets /ws/runs upgrade through the wrapper
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// accessLog logs one line per request; 5xx at warn, the rest at debug
func accessLog(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			entry := log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start).String(),
			})
			if sw.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
				return
			}
			entry.Debug("HTTP request")
		})
	}
}

// recoverPanics turns a handler panic into a 500 JSON response
func recoverPanics(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic": rec,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal server error"}` + "\n"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
