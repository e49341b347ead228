// Copyright 2025 gorse Project Authors
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

package logics

import (
	"context"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/config"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Recommendation is the result of a recommendation request together with the
// intermediate results of every stage.
type Recommendation struct {
	UserId    int32
	Watched   []int32
	Cohort    []int32
	TopUsers  []Similarity
	RawScores []Score
	Scores    []Score
	SeedId    int32
	Similar   []Similarity
	Items     HybridList

	UserBasedTime time.Duration
	ItemBasedTime time.Duration
}

// Recommender runs the hybrid pipeline over a shared rating matrix. It keeps
// no per-request state and is safe for concurrent use.
type Recommender struct {
	config  config.RecommendConfig
	matrix  *RatingMatrix
	catalog Dataset
	filter  ItemFilter
}

// NewRecommender creates a recommender. The matrix drives neighbourhood
// selection while scores are aggregated over the full rating log of the
// catalog. The item filter in cfg is compiled once here.
func NewRecommender(cfg config.RecommendConfig, matrix *RatingMatrix, catalog Dataset) (*Recommender, error) {
	r := &Recommender{
		config:  cfg,
		matrix:  matrix,
		catalog: catalog,
	}
	if cfg.ItemFilter != "" {
		filter, err := config.CompileItemFilter(cfg.ItemFilter)
		if err != nil {
			return nil, errors.Annotatef(err, "compile item filter `%s`", cfg.ItemFilter)
		}
		r.filter = filter
	}
	return r, nil
}

// Matrix returns the rating matrix used by the recommender.
func (r *Recommender) Matrix() *RatingMatrix {
	return r.matrix
}

// Recommend runs both branches for a user. The seed of the item-based branch
// is selected from the user's ratings.
func (r *Recommender) Recommend(ctx context.Context, userId int32) (*Recommendation, error) {
	return r.recommend(ctx, userId, nil)
}

// RecommendWithSeed runs both branches for a user with an explicit seed item.
func (r *Recommender) RecommendWithSeed(ctx context.Context, userId, seedId int32) (*Recommendation, error) {
	return r.recommend(ctx, userId, &seedId)
}

func (r *Recommender) recommend(ctx context.Context, userId int32, seedId *int32) (*Recommendation, error) {
	rec := &Recommendation{UserId: userId}

	// user-based branch
	start := time.Now()
	cohort, err := r.matrix.SelectCohort(userId, r.config.OverlapFraction, r.config.MinWatched)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rec.Watched = r.matrix.WatchedItems(cohort.Watched)
	rec.Cohort = cohort.SortedMembers()
	if len(rec.Cohort) == 0 {
		return nil, errors.Annotatef(ErrInsufficientData, "empty cohort for user %d", userId)
	}
	if err = ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	rec.TopUsers = r.matrix.TopUsers(cohort, r.config.CorrelationThreshold)
	if len(rec.TopUsers) == 0 {
		return nil, errors.Annotatef(ErrInsufficientData, "no similar user for user %d", userId)
	}
	if err = ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	rec.RawScores = AggregateScores(r.catalog, userId, rec.TopUsers)
	rec.Scores = FilterScores(MinMaxScale(rec.RawScores, r.config.ScaleMax), r.config.ScoreCutoff)
	rec.UserBasedTime = time.Since(start)
	log.Logger().Debug("complete user-based recommendation",
		zap.Int32("user_id", userId),
		zap.Int("n_watched", len(rec.Watched)),
		zap.Int("n_cohort", len(rec.Cohort)),
		zap.Int("n_top_users", len(rec.TopUsers)),
		zap.Int("n_scores", len(rec.Scores)),
		zap.Duration("used_time", rec.UserBasedTime))
	if err = ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	// item-based branch
	start = time.Now()
	if seedId != nil {
		rec.SeedId = *seedId
	} else {
		rec.SeedId, err = SelectSeed(r.matrix.UserRatings(userId), r.config.Seed.Rating)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	rec.Similar, err = r.matrix.SimilarItems(rec.SeedId, r.config.NumItemBased, r.acceptItem)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rec.ItemBasedTime = time.Since(start)
	log.Logger().Debug("complete item-based recommendation",
		zap.Int32("user_id", userId),
		zap.Int32("seed_id", rec.SeedId),
		zap.Int("n_similar", len(rec.Similar)),
		zap.Duration("used_time", rec.ItemBasedTime))

	rec.Items = Compose(rec.Scores, rec.Similar, r.catalog, r.composeOptions())
	return rec, nil
}

// SimilarItems runs the item-based branch only.
func (r *Recommender) SimilarItems(ctx context.Context, itemId int32) (HybridList, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	similar, err := r.matrix.SimilarItems(itemId, r.config.NumItemBased, r.acceptItem)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return Compose(nil, similar, r.catalog, r.composeOptions()), nil
}

func (r *Recommender) acceptItem(itemId int32) bool {
	if r.filter == nil {
		return true
	}
	item, ok := r.catalog.GetItem(itemId)
	if !ok {
		return false
	}
	return r.filter.accept(item)
}

func (r *Recommender) composeOptions() ComposeOptions {
	return ComposeOptions{
		NumUserBased: r.config.NumUserBased,
		NumItemBased: r.config.NumItemBased,
		Filter:       r.filter,
	}
}

var _ Dataset = (*dataset.Dataset)(nil)
