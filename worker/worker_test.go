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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/config"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/logics"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage/cache"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type WorkerTestSuite struct {
	suite.Suite
	server      *miniredis.Miniredis
	cacheClient cache.Database
	config      *config.Config
	recommender *logics.Recommender
}

func (suite *WorkerTestSuite) SetupSuite() {
	var err error
	suite.server, err = miniredis.Run()
	suite.NoError(err)
	suite.cacheClient, err = cache.Open("redis://"+suite.server.Addr(), "")
	suite.NoError(err)
}

func (suite *WorkerTestSuite) TearDownSuite() {
	suite.NoError(suite.cacheClient.Close())
	suite.server.Close()
}

func (suite *WorkerTestSuite) SetupTest() {
	suite.server.FlushAll()
	suite.config = config.GetDefaultConfig()
	suite.config.Recommend.PopularityThreshold = 0
	suite.config.Worker.Jobs = 2
	suite.config.Worker.CacheTTL = time.Hour

	data := dataset.NewDataset(time.Now(), 4, 16)
	data.AddItem(dataset.Item{ItemId: 1, Title: "Toy Story (1995)"})
	data.AddItem(dataset.Item{ItemId: 2, Title: "Jumanji (1995)"})
	data.AddItem(dataset.Item{ItemId: 3, Title: "Grumpier Old Men (1995)"})
	data.AddItem(dataset.Item{ItemId: 4, Title: "Waiting to Exhale (1995)"})
	for userId, ratings := range map[int32][]float64{
		1: {5, 4, 1, 0},
		2: {5, 4, 1, 5},
		3: {4, 5, 2, 1},
		4: {0, 0, 0, 3},
	} {
		for i, rating := range ratings {
			if rating > 0 {
				data.AddRating(dataset.Rating{UserId: userId, ItemId: int32(i + 1), Rating: rating, Timestamp: int64(i)})
			}
		}
	}
	matrix, err := logics.NewRatingMatrixFromDataset(data, logics.NewMatrixOptions(suite.config.Recommend))
	suite.NoError(err)
	suite.recommender, err = logics.NewRecommender(suite.config.Recommend, matrix, data)
	suite.NoError(err)
}

func (suite *WorkerTestSuite) TestRecommend() {
	ctx := context.Background()
	suite.config.Worker.MetricsPath = filepath.Join(suite.T().TempDir(), "worker.prom")
	w := NewWorker(suite.config, suite.recommender, suite.cacheClient)
	summary, err := w.Recommend(ctx, []int32{1, 2, 4, 100})
	suite.NoError(err)
	suite.NotEmpty(summary.RunId)
	suite.Equal(4, summary.Total)
	suite.Equal(2, summary.Updated)
	suite.Equal(2, summary.Skipped)
	suite.Zero(summary.Failed)
	suite.Equal(2.0, testutil.ToFloat64(UpdateUserRecommendTotal))
	suite.Equal(2.0, testutil.ToFloat64(SkipUserRecommendTotal))

	recommendation, err := suite.cacheClient.GetRecommendation(ctx, 1)
	suite.NoError(err)
	suite.Equal(int32(1), recommendation.UserId)
	suite.NotEmpty(recommendation.Items)
	expected, err := suite.recommender.Recommend(ctx, 1)
	suite.NoError(err)
	suite.Equal(expected.Items, recommendation.Items)
	suite.Greater(suite.server.TTL("recommend/1"), time.Duration(0))

	_, err = suite.cacheClient.GetRecommendation(ctx, 4)
	suite.True(errors.Is(err, cache.ErrObjectNotExist))

	metrics, err := os.ReadFile(suite.config.Worker.MetricsPath)
	suite.NoError(err)
	suite.Contains(string(metrics), "movie_recommender_worker_update_user_recommend_total 2")
}

func (suite *WorkerTestSuite) TestCacheFailure() {
	w := NewWorker(suite.config, suite.recommender, cache.NoDatabase{})
	summary, err := w.Recommend(context.Background(), []int32{1, 2})
	suite.NoError(err)
	suite.Zero(summary.Updated)
	suite.Equal(2, summary.Failed)
}

// unstableCache panics while caching recommendations of one user.
type unstableCache struct {
	cache.Database
	userId int32
}

func (c unstableCache) SetRecommendation(ctx context.Context, recommendation cache.Recommendation, ttl time.Duration) error {
	if recommendation.UserId == c.userId {
		panic("connection reset")
	}
	return c.Database.SetRecommendation(ctx, recommendation, ttl)
}

func (suite *WorkerTestSuite) TestPanic() {
	for _, jobs := range []int{1, 2} {
		suite.config.Worker.Jobs = jobs
		w := NewWorker(suite.config, suite.recommender, unstableCache{Database: suite.cacheClient, userId: 2})
		summary, err := w.Recommend(context.Background(), []int32{1, 2, 4, 100})
		suite.NoError(err)
		suite.Equal(1, summary.Updated)
		suite.Equal(2, summary.Skipped)
		suite.Equal(1, summary.Failed)
		suite.Equal(summary.Total, summary.Updated+summary.Skipped+summary.Failed)
	}
}

func (suite *WorkerTestSuite) TestCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWorker(suite.config, suite.recommender, suite.cacheClient)
	_, err := w.Recommend(ctx, []int32{1, 2})
	suite.True(errors.Is(err, context.Canceled))
}

func TestWorker(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}
