package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	migrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daybook_migrations_total",
		Help: "Backend migrations by source, target and outcome",
	}, []string{"from", "to", "status"})

	migrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "daybook_migration_duration_seconds",
		Help:    "Time to run a backend migration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"status"})

	backendFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daybook_backend_fallbacks_total",
		Help: "Startups that fell back from the relational to the key-value backend",
	})
)

var tracer = otel.Tracer("daybook.manager")
