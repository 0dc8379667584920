package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "attached_devices",
			Help: "Devices currently attached to a pipeline",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM pipeline_devices")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "endpoint_attachments",
			Help: "Endpoint attachments across all pipelines",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM pipeline_endpoints")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "pipelines",
			Help: "Total pipelines",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM pipelines")
		},
	))
}

func queryCount(db *sql.DB, logger Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", "error", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
