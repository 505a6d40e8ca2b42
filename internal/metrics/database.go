package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DBConnections reports the pgx pool by state: total, acquired, idle and max.
var DBConnections = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "db",
	Name:      "connections",
	Help:      "Database pool connections by state.",
}, []string{"state"})

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	Total    int32
	Acquired int32
	Idle     int32
	Max      int32
}

// PgxPoolStats samples pool.
func PgxPoolStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{Total: s.TotalConns(), Acquired: s.AcquiredConns(), Idle: s.IdleConns(), Max: s.MaxConns()}
	}
}

// DBCollector copies pool statistics into DBConnections on a fixed interval.
type DBCollector struct {
	stats func() PoolStats
}

func NewDBCollector(stats func() PoolStats) *DBCollector {
	return &DBCollector{stats: stats}
}

// Run samples once immediately, then every interval until ctx is done.
func (c *DBCollector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.collect()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *DBCollector) collect() {
	if c.stats == nil {
		return
	}
	s := c.stats()
	for state, value := range map[string]int32{
		"total":    s.Total,
		"acquired": s.Acquired,
		"idle":     s.Idle,
		"max":      s.Max,
	} {
		DBConnections.WithLabelValues(state).Set(float64(value))
	}
}
