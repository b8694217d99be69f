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

package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the curation stages.
type metricsPipeline struct {
	once sync.Once

	// Records
	recordsRead    *prometheus.CounterVec
	recordsWritten *prometheus.CounterVec
	recordsDropped *prometheus.CounterVec

	// Caches
	cacheLookups *prometheus.CounterVec

	// Repositories
	repoVerdicts     *prometheus.CounterVec
	adoptionResolved *prometheus.CounterVec

	// Durations
	stageDuration *prometheus.HistogramVec
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.recordsRead = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_records_read_total", Help: "Records read per stage"}, []string{"stage"})
		m.recordsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_records_written_total", Help: "Records written per stage"}, []string{"stage"})
		m.recordsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_records_dropped_total", Help: "Records dropped per stage and reason"}, []string{"stage", "reason"})

		m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_cache_lookups_total", Help: "API cache lookups by cache and result"}, []string{"cache", "result"})

		m.repoVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_repo_verdicts_total", Help: "Keyword verdicts computed from the API"}, []string{"verdict"})
		m.adoptionResolved = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ccs_pipeline_adoption_resolved_total", Help: "Adoption dates resolved from the API by outcome"}, []string{"outcome"})

		buckets := []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "ccs_pipeline_stage_seconds", Help: "Stage wall time", Buckets: buckets}, []string{"stage"})

		prometheus.MustRegister(
			m.recordsRead, m.recordsWritten, m.recordsDropped,
			m.cacheLookups,
			m.repoVerdicts, m.adoptionResolved,
			m.stageDuration,
		)
	})
}

// record helpers - used by the stages for metrics tracking
func recordRead(stage string, n int) {
	pipeMetrics.init()
	pipeMetrics.recordsRead.WithLabelValues(stage).Add(float64(n))
}

func recordWritten(stage string, n int) {
	pipeMetrics.init()
	pipeMetrics.recordsWritten.WithLabelValues(stage).Add(float64(n))
}

func recordDropped(stage, reason string, n int) {
	if n <= 0 {
		return
	}
	pipeMetrics.init()
	pipeMetrics.recordsDropped.WithLabelValues(stage, reason).Add(float64(n))
}

func recordCacheLookup(cache string, hit bool) {
	pipeMetrics.init()
	result := "miss"
	if hit {
		result = "hit"
	}
	pipeMetrics.cacheLookups.WithLabelValues(cache, result).Inc()
}

func recordVerdict(ok bool) {
	pipeMetrics.init()
	v := "negative"
	if ok {
		v = "positive"
	}
	pipeMetrics.repoVerdicts.WithLabelValues(v).Inc()
}

func recordAdoption(outcome string) {
	pipeMetrics.init()
	pipeMetrics.adoptionResolved.WithLabelValues(outcome).Inc()
}

func observeStage(stage string, start time.Time) {
	pipeMetrics.init()
	pipeMetrics.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
