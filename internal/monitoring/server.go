// internal/monitoring/server.go
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clip-vote-platform/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc возвращает снимок здоровья одного источника (очереди)
type HealthFunc func(ctx context.Context) (interface{}, error)

// Server — служебный HTTP-сервер для операционного инструментария:
// health очередей и метрики Prometheus. Пользовательского трафика
// здесь нет и быть не должно.
type Server struct {
	srv     *http.Server
	sources map[string]HealthFunc
}

// NewServer создает сервер на заданном порту
func NewServer(port int, sources map[string]HealthFunc) *Server {
	s := &Server{sources: sources}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health/queues", s.handleQueueHealth)
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start запускает сервер в фоновой горутине
func (s *Server) Start() {
	go func() {
		logger.Info("🌐 [Monitoring] HTTP сервер запущен на %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("❌ [Monitoring] HTTP сервер упал: %v", err)
		}
	}()
}

// Stop останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleQueueHealth отдает health всех очередей одним JSON-объектом
func (s *Server) handleQueueHealth(w http.ResponseWriter, r *http.Request) {
	result := make(map[string]interface{}, len(s.sources))
	status := http.StatusOK

	for name, fn := range s.sources {
		health, err := fn(r.Context())
		if err != nil {
			result[name] = map[string]string{"error": err.Error()}
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = health
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}
