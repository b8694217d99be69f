// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package github

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsClient holds Prometheus metrics for GitHub API traffic.
type metricsClient struct {
	once sync.Once

	requests       *prometheus.CounterVec
	retries        prometheus.Counter
	rateLimitWaits prometheus.Counter
	duration       prometheus.Histogram
}

var ghMetrics metricsClient

func (m *metricsClient) init() {
	m.once.Do(func() {
		m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_github_requests_total", Help: "GitHub API requests by status class"}, []string{"class"})
		m.retries = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccs_github_retries_total", Help: "GitHub API requests retried after an error"})
		m.rateLimitWaits = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccs_github_ratelimit_waits_total", Help: "Waits for a GitHub rate-limit reset"})

		buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ccs_github_request_seconds", Help: "GitHub API request latency", Buckets: buckets})

		prometheus.MustRegister(m.requests, m.retries, m.rateLimitWaits, m.duration)
	})
}

func observeRequest(err error, d time.Duration) {
	ghMetrics.init()
	ghMetrics.duration.Observe(d.Seconds())
	ghMetrics.requests.WithLabelValues(statusClass(err)).Inc()
}

func recordRetry()         { ghMetrics.init(); ghMetrics.retries.Inc() }
func recordRateLimitWait() { ghMetrics.init(); ghMetrics.rateLimitWaits.Inc() }

func statusClass(err error) string {
	if err == nil {
		return "2xx"
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return "transport"
	}
	switch {
	case httpErr.StatusCode >= 500:
		return "5xx"
	case httpErr.StatusCode >= 400:
		return "4xx"
	default:
		return "other"
	}
}
