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
	"testing"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCohort(t *testing.T) {
	// target rated {A, B, C}, user 2 rated two of them and user 3 one of them
	ratings := []dataset.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 1, ItemId: 2, Rating: 4},
		{UserId: 1, ItemId: 3, Rating: 3},
		{UserId: 2, ItemId: 1, Rating: 4},
		{UserId: 2, ItemId: 2, Rating: 2},
		{UserId: 3, ItemId: 3, Rating: 1},
		{UserId: 3, ItemId: 4, Rating: 2},
	}
	m, err := NewRatingMatrix(newItems(1, 2, 3, 4), ratings, MatrixOptions{})
	require.NoError(t, err)

	cohort, err := m.SelectCohort(1, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, []int32{2}, cohort.SortedMembers())
	assert.Equal(t, []int32{1, 2, 3}, m.WatchedItems(cohort.Watched))
	assert.False(t, cohort.Members.Contains(1))
	for _, member := range cohort.SortedMembers() {
		assert.Greater(t, float64(m.MovieCount(member, cohort.Watched)), float64(cohort.Watched.Count())*0.5)
	}
	assert.Equal(t, 1, m.MovieCount(3, cohort.Watched))

	// a lower fraction admits user 3
	cohort, err = m.SelectCohort(1, 0.3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3}, cohort.SortedMembers())
}

func TestSelectCohort_Errors(t *testing.T) {
	ratings := []dataset.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 2, ItemId: 1, Rating: 4},
		{UserId: 2, ItemId: 2, Rating: 4},
	}
	m, err := NewRatingMatrix(newItems(1, 2), ratings, MatrixOptions{})
	require.NoError(t, err)

	_, err = m.SelectCohort(100, 0.65, 2)
	assert.True(t, errors.Is(err, ErrUnknownUser))
	_, err = m.WatchedSet(100)
	assert.True(t, errors.Is(err, ErrUnknownUser))
	_, err = m.SelectCohort(1, 0.65, 2)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	// user 1 is the only other user and overlaps on one of two items
	cohort, err := m.SelectCohort(2, 0.65, 2)
	require.NoError(t, err)
	assert.Zero(t, cohort.Members.Cardinality())
}
