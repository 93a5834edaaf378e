package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type poolGauge struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	pool    *pgxpool.Pool
	service string
	gauges  []poolGauge
}

// NewPoolStatsCollector builds a collector over pool labelled with service.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	labels := []string{"service"}
	def := func(name, help string, vt prometheus.ValueType, fn func(*pgxpool.Stat) float64) poolGauge {
		return poolGauge{desc: prometheus.NewDesc(name, help, labels, nil), valueType: vt, value: fn}
	}
	return &PoolStatsCollector{
		pool:    pool,
		service: service,
		gauges: []poolGauge{
			def("db_pool_acquired_connections", "Connections currently checked out.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			def("db_pool_idle_connections", "Connections currently idle.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			def("db_pool_total_connections", "Connections open in the pool.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			def("db_pool_max_connections", "Configured connection ceiling.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
			def("db_pool_acquire_count_total", "Successful connection acquisitions.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			def("db_pool_acquire_duration_seconds_total", "Time spent acquiring connections.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			def("db_pool_empty_acquire_count_total", "Acquisitions that had to wait for a connection.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			def("db_pool_new_connections_total", "Connections opened since start.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.NewConnsCount()) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, g := range c.gauges {
		ch <- prometheus.MustNewConstMetric(g.desc, g.valueType, g.value(stat), c.service)
	}
}
