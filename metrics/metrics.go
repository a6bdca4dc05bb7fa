// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors shared by the engine and
// the HTTP server.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pasahe",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	// Boundary index metrics
	ZoneCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "boundary",
		Name:      "cache_lookups_total",
		Help:      "Coordinate cache lookups by result (hit, miss)",
	}, []string{"result"})

	AmbiguousZoneMatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "boundary",
		Name:      "ambiguous_matches_total",
		Help:      "Point lookups contained by more than one zone",
	})

	// Oracle metrics
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "oracle",
		Name:      "requests_total",
		Help:      "Reverse geocoding requests by outcome",
	}, []string{"outcome"})

	OracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pasahe",
		Subsystem: "oracle",
		Name:      "request_duration_seconds",
		Help:      "Reverse geocoding latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// Domain metrics
	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "curation",
		Name:      "validations_total",
		Help:      "Location validations by category and verdict",
	}, []string{"category", "valid"})

	FareQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pasahe",
		Subsystem: "fare",
		Name:      "quotes_total",
		Help:      "Fare quotes by distance source and boundary crossing",
	}, []string{"distance_source", "crosses_boundary"})
)

// Middleware records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
