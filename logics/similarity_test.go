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
	"math/rand"
	"testing"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		corr float64
		ok   bool
	}{
		{name: "positive", x: []float64{1, 2, 3}, y: []float64{2, 4, 6}, corr: 1, ok: true},
		{name: "negative", x: []float64{1, 2, 3}, y: []float64{3, 2, 1}, corr: -1, ok: true},
		{name: "partial", x: []float64{5, 4, 1, 2}, y: []float64{4, 5, 2, 1}, corr: 0.8, ok: true},
		{name: "single", x: []float64{1}, y: []float64{2}},
		{name: "empty"},
		{name: "constant", x: []float64{3, 3, 3}, y: []float64{1, 2, 3}},
		{name: "mismatch", x: []float64{1, 2, 3}, y: []float64{1, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			corr, ok := Pearson(test.x, test.y)
			assert.Equal(t, test.ok, ok)
			if test.ok {
				assert.InDelta(t, test.corr, corr, 1e-9)
			}
		})
	}
}

func TestPearson_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for i := 0; i < 100; i++ {
		n := 2 + rng.Intn(20)
		x := make([]float64, n)
		y := make([]float64, n)
		for j := 0; j < n; j++ {
			x[j] = float64(rng.Intn(11)) / 2
			y[j] = float64(rng.Intn(11)) / 2
		}
		a, okA := Pearson(x, y)
		b, okB := Pearson(y, x)
		assert.Equal(t, okA, okB)
		if okA {
			assert.InDelta(t, a, b, 1e-12)
			assert.LessOrEqual(t, math.Abs(a), 1.0)
		}
	}
}

func TestCoObserved(t *testing.T) {
	a := &sparseVector{indices: []int32{0, 2, 3, 5}, values: []float64{1, 2, 3, 4}}
	b := &sparseVector{indices: []int32{1, 2, 5, 6}, values: []float64{5, 6, 7, 8}}
	x, y := coObserved(a, b, nil)
	assert.Equal(t, []float64{2, 4}, x)
	assert.Equal(t, []float64{6, 7}, y)
}

// similarityRatings builds a small dataset used by several tests:
//
//	user 1: 1:5 2:4 3:1 4:2
//	user 2: 1:5 2:4 3:1 5:5
//	user 3: 1:4 2:5 3:2 4:1 6:4
//	user 4: 1:1 2:2 3:5 6:5
//	user 5: 5:3
func similarityRatings() ([]dataset.Item, []dataset.Rating) {
	items := []dataset.Item{
		{ItemId: 1, Title: "Toy Story (1995)", Genres: []string{"Animation", "Children"}},
		{ItemId: 2, Title: "Jumanji (1995)", Genres: []string{"Adventure"}},
		{ItemId: 3, Title: "Grumpier Old Men (1995)", Genres: []string{"Comedy", "Romance"}},
		{ItemId: 4, Title: "Waiting to Exhale (1995)", Genres: []string{"Comedy", "Drama"}},
		{ItemId: 5, Title: "Father of the Bride Part II (1995)", Genres: []string{"Comedy"}},
		{ItemId: 6, Title: "Heat (1995)", Genres: []string{"Action", "Crime"}},
	}
	table := map[int32][][2]float64{
		1: {{1, 5}, {2, 4}, {3, 1}, {4, 2}},
		2: {{1, 5}, {2, 4}, {3, 1}, {5, 5}},
		3: {{1, 4}, {2, 5}, {3, 2}, {4, 1}, {6, 4}},
		4: {{1, 1}, {2, 2}, {3, 5}, {6, 5}},
		5: {{5, 3}},
	}
	var ratings []dataset.Rating
	for userId := int32(1); userId <= 5; userId++ {
		for i, cell := range table[userId] {
			ratings = append(ratings, dataset.Rating{
				UserId:    userId,
				ItemId:    int32(cell[0]),
				Rating:    cell[1],
				Timestamp: int64(100 * (i + 1)),
			})
		}
	}
	return items, ratings
}

func newSimilarityMatrix(t *testing.T) *RatingMatrix {
	items, ratings := similarityRatings()
	m, err := NewRatingMatrix(items, ratings, MatrixOptions{})
	require.NoError(t, err)
	return m
}

func TestTopUsers(t *testing.T) {
	m := newSimilarityMatrix(t)
	cohort, err := m.SelectCohort(1, 0.65, 2)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4}, cohort.SortedMembers())

	topUsers := m.TopUsers(cohort, 0.65)
	require.Len(t, topUsers, 2)
	assert.Equal(t, int32(2), topUsers[0].Id)
	assert.InDelta(t, 1.0, topUsers[0].Correlation, 1e-9)
	assert.Equal(t, int32(3), topUsers[1].Id)
	assert.InDelta(t, 0.8, topUsers[1].Correlation, 1e-9)

	// the target is excluded even if it is in the cohort
	cohort.Members.Add(1)
	topUsers = m.TopUsers(cohort, -1)
	assert.NotContains(t, topUsers, Similarity{Id: 1, Correlation: 1})
	assert.Len(t, topUsers, 3)
}

func TestTopUsers_Ties(t *testing.T) {
	var ratings []dataset.Rating
	for _, userId := range []int32{4, 1, 3, 2} {
		ratings = append(ratings,
			dataset.Rating{UserId: userId, ItemId: 1, Rating: 1},
			dataset.Rating{UserId: userId, ItemId: 2, Rating: 2},
			dataset.Rating{UserId: userId, ItemId: 3, Rating: 3})
	}
	m, err := NewRatingMatrix(newItems(1, 2, 3), ratings, MatrixOptions{})
	require.NoError(t, err)
	cohort, err := m.SelectCohort(3, 0.65, 2)
	require.NoError(t, err)
	topUsers := m.TopUsers(cohort, 0.65)
	assert.Equal(t, []int32{1, 2, 4}, []int32{topUsers[0].Id, topUsers[1].Id, topUsers[2].Id})
}

func TestCorrelationMatrix(t *testing.T) {
	m := newSimilarityMatrix(t)
	cohort, err := m.SelectCohort(1, 0.65, 2)
	require.NoError(t, err)
	table := m.CorrelationMatrix(cohort)
	assert.Equal(t, []int32{1, 2, 3, 4}, table.Ids())
	for _, a := range table.Ids() {
		for _, b := range table.Ids() {
			ab, okAB := table.Get(a, b)
			ba, okBA := table.Get(b, a)
			assert.Equal(t, okAB, okBA)
			assert.InDelta(t, ab, ba, 1e-12)
		}
	}
	corr, ok := table.Get(1, 3)
	assert.True(t, ok)
	assert.InDelta(t, 0.8, corr, 1e-9)
	corr, ok = table.Get(2, 2)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, corr, 1e-9)
	_, ok = table.Get(1, 5)
	assert.False(t, ok)
}

func TestSimilarItems(t *testing.T) {
	m := newSimilarityMatrix(t)
	similar, err := m.SimilarItems(1, 5, nil)
	require.NoError(t, err)
	require.Len(t, similar, 4)
	assert.Equal(t, []int32{4, 2, 3, 6}, []int32{similar[0].Id, similar[1].Id, similar[2].Id, similar[3].Id})
	assert.InDelta(t, 1.0, similar[0].Correlation, 1e-9)
	assert.InDelta(t, 5.75/math.Sqrt(10.75*4.75), similar[1].Correlation, 1e-9)
	assert.InDelta(t, -1.0, similar[3].Correlation, 1e-9)

	similar, err = m.SimilarItems(1, 2, nil)
	require.NoError(t, err)
	assert.Len(t, similar, 2)

	similar, err = m.SimilarItems(1, 5, func(itemId int32) bool {
		return itemId != 4
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), similar[0].Id)

	_, err = m.SimilarItems(100, 5, nil)
	assert.True(t, errors.Is(err, ErrUnknownItem))
}

func TestSimilarItems_NoOverlap(t *testing.T) {
	ratings := []dataset.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 1, ItemId: 2, Rating: 3},
		{UserId: 2, ItemId: 1, Rating: 4},
		{UserId: 3, ItemId: 3, Rating: 2},
	}
	m, err := NewRatingMatrix(newItems(1, 2, 3), ratings, MatrixOptions{})
	require.NoError(t, err)
	similar, err := m.SimilarItems(1, 5, nil)
	assert.NoError(t, err)
	assert.Empty(t, similar)
}
