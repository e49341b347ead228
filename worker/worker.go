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
	"context"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/common/parallel"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/config"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/logics"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage/cache"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Worker computes recommendations for many users offline and stores them in
// the cache.
type Worker struct {
	config      *config.Config
	recommender *logics.Recommender
	cacheClient cache.Database
	jobs        int

	// progress report interval
	tick time.Duration
}

// NewWorker creates a worker.
func NewWorker(cfg *config.Config, recommender *logics.Recommender, cacheClient cache.Database) *Worker {
	return &Worker{
		config:      cfg,
		recommender: recommender,
		cacheClient: cacheClient,
		jobs:        cfg.Worker.Jobs,
		tick:        10 * time.Second,
	}
}

// Summary describes a batch of offline recommendation.
type Summary struct {
	RunId    string
	Total    int
	Updated  int
	Skipped  int
	Failed   int
	UsedTime time.Duration
}

// Recommend generates recommendations for users and writes them to the cache.
// Users without enough data are skipped and other per-user failures are
// counted, neither of them aborts the batch. Only cancellation of ctx does.
func (w *Worker) Recommend(ctx context.Context, userIds []int32) (*Summary, error) {
	runId := uuid.New().String()
	startRecommendTime := time.Now()
	log.Logger().Info("offline recommendation progress",
		zap.String("run_id", runId),
		zap.Int("n_working_users", len(userIds)),
		zap.Int("n_jobs", w.jobs))

	// progress tracker
	var completedCount atomic.Int64
	done := make(chan struct{})
	defer close(done)
	go func() {
		previousCount := int64(0)
		ticker := time.NewTicker(w.tick)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				count := completedCount.Load()
				throughput := count - previousCount
				previousCount = count
				if throughput > 0 {
					log.Logger().Info("offline recommendation progress",
						zap.String("run_id", runId),
						zap.Int64("n_complete_users", count),
						zap.Int("n_working_users", len(userIds)),
						zap.Int64("throughput", throughput))
				}
			}
		}
	}()

	var (
		updateUserCount        atomic.Int64
		skipUserCount          atomic.Int64
		failUserCount          atomic.Int64
		userBasedRecommendTime atomic.Duration
		itemBasedRecommendTime atomic.Duration
	)
	err := parallel.Parallel(ctx, len(userIds), w.jobs, func(_, jobId int) error {
		defer completedCount.Inc()
		userId := userIds[jobId]
		defer func() {
			if r := recover(); r != nil {
				log.Logger().Error("panic in recommendation", zap.Int32("user_id", userId), zap.Any("panic", r))
				failUserCount.Inc()
			}
		}()
		recommendation, err := w.recommender.Recommend(ctx, userId)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return errors.Trace(err)
			}
			if errors.Is(err, logics.ErrUnknownUser) || errors.Is(err, logics.ErrInsufficientData) {
				log.Logger().Debug("skip user", zap.Int32("user_id", userId), zap.Error(err))
				skipUserCount.Inc()
				return nil
			}
			log.Logger().Error("failed to recommend", zap.Int32("user_id", userId), zap.Error(err))
			failUserCount.Inc()
			return nil
		}
		userBasedRecommendTime.Add(recommendation.UserBasedTime)
		itemBasedRecommendTime.Add(recommendation.ItemBasedTime)
		for _, candidate := range recommendation.Items {
			RecommendCandidatesTotalVec.WithLabelValues(string(candidate.Source)).Inc()
		}
		if err = w.cacheClient.SetRecommendation(ctx, cache.Recommendation{
			UserId:    userId,
			Items:     recommendation.Items,
			Timestamp: time.Now(),
		}, w.config.Worker.CacheTTL); err != nil {
			log.Logger().Error("failed to cache recommendation", zap.Int32("user_id", userId), zap.Error(err))
			failUserCount.Inc()
			return nil
		}
		updateUserCount.Inc()
		return nil
	})
	summary := &Summary{
		RunId:    runId,
		Total:    len(userIds),
		Updated:  int(updateUserCount.Load()),
		Skipped:  int(skipUserCount.Load()),
		Failed:   int(failUserCount.Load()),
		UsedTime: time.Since(startRecommendTime),
	}
	UpdateUserRecommendTotal.Set(float64(summary.Updated))
	SkipUserRecommendTotal.Set(float64(summary.Skipped))
	FailUserRecommendTotal.Set(float64(summary.Failed))
	OfflineRecommendTotalSeconds.Set(summary.UsedTime.Seconds())
	OfflineRecommendStepSecondsVec.WithLabelValues("user_based_recommend").Set(userBasedRecommendTime.Load().Seconds())
	OfflineRecommendStepSecondsVec.WithLabelValues("item_based_recommend").Set(itemBasedRecommendTime.Load().Seconds())
	if err != nil {
		log.Logger().Error("failed to continue offline recommendation", zap.String("run_id", runId), zap.Error(err))
		return summary, errors.Trace(err)
	}
	if w.config.Worker.MetricsPath != "" {
		if err = WriteMetrics(w.config.Worker.MetricsPath); err != nil {
			log.Logger().Error("failed to write metrics", zap.String("path", w.config.Worker.MetricsPath), zap.Error(err))
		}
	}
	log.Logger().Info("complete ranking recommendation",
		zap.String("run_id", runId),
		zap.Int("n_updated_users", summary.Updated),
		zap.Int("n_skipped_users", summary.Skipped),
		zap.Int("n_failed_users", summary.Failed),
		zap.Duration("used_time", summary.UsedTime))
	return summary, nil
}
