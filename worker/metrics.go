// Copyright 2021 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package worker

import (
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStep   = "step"
	LabelSource = "source"
)

var (
	UpdateUserRecommendTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "update_user_recommend_total",
	})
	SkipUserRecommendTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "skip_user_recommend_total",
	})
	FailUserRecommendTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "fail_user_recommend_total",
	})
	OfflineRecommendStepSecondsVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "offline_recommend_step_seconds",
	}, []string{LabelStep})
	OfflineRecommendTotalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "offline_recommend_total_seconds",
	})
	RecommendCandidatesTotalVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "movie_recommender",
		Subsystem: "worker",
		Name:      "recommend_candidates_total",
	}, []string{LabelSource})
)

// WriteMetrics writes all registered metrics to a file in the text format of
// the node exporter textfile collector.
func WriteMetrics(path string) error {
	return errors.Trace(prometheus.WriteToTextfile(path, prometheus.DefaultGatherer))
}
