// services/solver-svc/factory.go
package solversvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"netsimplex/pkg/config"
	"netsimplex/services/solver-svc/internal/handler"
	"netsimplex/services/solver-svc/internal/repository"
	"netsimplex/services/solver-svc/internal/service"
)

// NewBenchmarkHandler создаёт HTTP обработчик сервиса для внешних бенчмарков:
// история в памяти, без кэша и метрик. Внутренние пакеты остаются скрытыми.
func NewBenchmarkHandler() http.Handler {
	svc := service.NewSolverService(service.Config{
		MaxConcurrent: 1,
	}, repository.NewMemoryRunRepository(), nil, nil)

	r := chi.NewRouter()
	handler.New(svc, config.AppConfig{Name: "benchmark"}).Register(r)
	return r
}
