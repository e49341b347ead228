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
	"math"
	"testing"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRatingLog(items []dataset.Item, ratings []dataset.Rating) *dataset.Dataset {
	data := newCatalog(items)
	for _, rating := range ratings {
		data.AddRating(rating)
	}
	return data
}

func TestAggregateScores(t *testing.T) {
	data := newRatingLog(similarityRatings())
	scores := AggregateScores(data, 1, []Similarity{{Id: 2, Correlation: 1}, {Id: 3, Correlation: 0.8}})
	expected := []Score{
		{ItemId: 1, Score: 4.1},
		{ItemId: 2, Score: 4.0},
		{ItemId: 3, Score: 1.3},
		{ItemId: 4, Score: 0.8},
		{ItemId: 5, Score: 5.0},
		{ItemId: 6, Score: 3.2},
	}
	require.Len(t, scores, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].ItemId, scores[i].ItemId)
		assert.InDelta(t, expected[i].Score, scores[i].Score, 1e-9)
	}

	// ratings of the target are excluded
	scores = AggregateScores(data, 1, []Similarity{{Id: 1, Correlation: 1}})
	assert.Empty(t, scores)
}

func TestAggregateScores_SingleMember(t *testing.T) {
	data := newRatingLog(newItems(1, 10), []dataset.Rating{
		{UserId: 1, ItemId: 1, Rating: 4},
		{UserId: 2, ItemId: 10, Rating: 5},
	})
	scores := AggregateScores(data, 1, []Similarity{{Id: 2, Correlation: 1}})
	assert.Equal(t, []Score{{ItemId: 10, Score: 5}}, scores)
	assert.Equal(t, []Score{{ItemId: 10, Score: 5}}, MinMaxScale(scores, 5))
}

func TestAggregateScores_UnpopularItems(t *testing.T) {
	var ratings []dataset.Rating
	for userId := int32(1); userId <= 3; userId++ {
		for itemId, rating := range map[int32]float64{1: 3, 2: 4, 3: 1} {
			ratings = append(ratings, dataset.Rating{UserId: userId, ItemId: itemId, Rating: rating})
		}
	}
	ratings = append(ratings, dataset.Rating{UserId: 2, ItemId: 9, Rating: 5})
	items := newItems(1, 2, 3, 9)
	m, err := NewRatingMatrix(items, ratings, MatrixOptions{PopularityThreshold: 2})
	require.NoError(t, err)
	assert.False(t, m.HasItem(9))

	// item 9 is pruned from the matrix but still scored from the rating log
	scores := AggregateScores(newRatingLog(items, ratings), 1, []Similarity{{Id: 2, Correlation: 1}})
	assert.Equal(t, []Score{
		{ItemId: 1, Score: 3},
		{ItemId: 2, Score: 4},
		{ItemId: 3, Score: 1},
		{ItemId: 9, Score: 5},
	}, scores)
	scaled := MinMaxScale(scores, 5)
	assert.Equal(t, []Score{
		{ItemId: 1, Score: 2.5},
		{ItemId: 2, Score: 3.75},
		{ItemId: 3, Score: 0},
		{ItemId: 9, Score: 5},
	}, scaled)
	assert.Equal(t, []Score{{ItemId: 9, Score: 5}}, FilterScores(scaled, 4.5))
}

func TestAggregateScores_Duplicates(t *testing.T) {
	data := newRatingLog(newItems(1, 2), []dataset.Rating{
		{UserId: 2, ItemId: 1, Rating: 1, Timestamp: 200},
		{UserId: 2, ItemId: 1, Rating: 5, Timestamp: 100},
		{UserId: 2, ItemId: 2, Rating: 2, Timestamp: 100},
		{UserId: 2, ItemId: 2, Rating: 4, Timestamp: 100},
		// unknown to the catalog
		{UserId: 2, ItemId: 7, Rating: 5, Timestamp: 100},
	})
	scores := AggregateScores(data, 1, []Similarity{{Id: 2, Correlation: 0.5}})
	assert.Equal(t, []Score{{ItemId: 1, Score: 0.5}, {ItemId: 2, Score: 2}}, scores)
}

func TestMinMaxScale(t *testing.T) {
	scores := MinMaxScale([]Score{
		{ItemId: 1, Score: 4.1},
		{ItemId: 2, Score: 0.8},
		{ItemId: 3, Score: 5.0},
		{ItemId: 4, Score: 2.9},
	}, 5)
	assert.Equal(t, 0.0, scores[1].Score)
	assert.Equal(t, 5.0, scores[2].Score)
	for _, score := range scores {
		assert.GreaterOrEqual(t, score.Score, 0.0)
		assert.LessOrEqual(t, score.Score, 5.0)
		assert.False(t, math.IsNaN(score.Score))
	}
	// order is preserved
	assert.Greater(t, scores[0].Score, scores[3].Score)

	// degenerate range
	assert.Equal(t, []Score{{ItemId: 1, Score: 5}, {ItemId: 2, Score: 5}},
		MinMaxScale([]Score{{ItemId: 1, Score: 2}, {ItemId: 2, Score: 2}}, 5))
	assert.Nil(t, MinMaxScale(nil, 5))
}

func TestFilterScores(t *testing.T) {
	scores := FilterScores([]Score{
		{ItemId: 3, Score: 4.6},
		{ItemId: 1, Score: 4.5},
		{ItemId: 2, Score: 5},
		{ItemId: 5, Score: 4.6},
		{ItemId: 4, Score: 1},
	}, 4.5)
	assert.Equal(t, []Score{
		{ItemId: 2, Score: 5},
		{ItemId: 3, Score: 4.6},
		{ItemId: 5, Score: 4.6},
	}, scores)
}
