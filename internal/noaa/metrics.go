// SPDX-License-Identifier: MIT

package noaa

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "county_htf",
		Name:      "noaa_api_requests_total",
		Help:      "Outcome of NOAA CO-OPS API requests by endpoint",
	}, []string{
		"endpoint", // annual|decadal
		"outcome",  // success|not_found|upstream_error|bad_response|transport
	})

	cacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "county_htf",
		Name:      "station_cache_ops_total",
		Help:      "Station cache operations by data type and outcome",
	}, []string{
		"data_type", // historical|projected
		"outcome",   // hit|miss|store|error
	})
)

func observeRequest(endpoint, outcome string) {
	apiRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func observeCache(dataType, outcome string) {
	cacheOpsTotal.WithLabelValues(dataType, outcome).Inc()
}
