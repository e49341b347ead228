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
	"sort"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// Cohort is the set of users whose watched items overlap enough with the
// target's watched items.
type Cohort struct {
	Target  int32
	Watched *bitset.BitSet
	Members mapset.Set[int32]
}

// SortedMembers returns cohort members in ascending order.
func (c *Cohort) SortedMembers() []int32 {
	members := c.Members.ToSlice()
	sort.Slice(members, func(i, j int) bool {
		return members[i] < members[j]
	})
	return members
}

// WatchedSet returns the columns rated by a user.
func (m *RatingMatrix) WatchedSet(userId int32) (*bitset.BitSet, error) {
	row, ok := m.users.Lookup(userId)
	if !ok {
		return nil, errors.Annotatef(ErrUnknownUser, "user %d", userId)
	}
	watched := bitset.New(uint(m.items.Count()))
	for _, col := range m.rows[row].indices {
		watched.Set(uint(col))
	}
	return watched, nil
}

// WatchedItems converts a watched set to item ids in ascending order.
func (m *RatingMatrix) WatchedItems(watched *bitset.BitSet) []int32 {
	itemIds := make([]int32, 0, watched.Count())
	for col, ok := watched.NextSet(0); ok; col, ok = watched.NextSet(col + 1) {
		itemId, _ := m.items.Key(int32(col))
		itemIds = append(itemIds, itemId)
	}
	return itemIds
}

// MovieCount returns the number of watched items also rated by a user.
func (m *RatingMatrix) MovieCount(userId int32, watched *bitset.BitSet) int {
	row, ok := m.users.Lookup(userId)
	if !ok {
		return 0
	}
	count := 0
	for _, col := range m.rows[row].indices {
		if watched.Test(uint(col)) {
			count++
		}
	}
	return count
}

// SelectCohort selects users who rated more than overlapFraction of the items
// watched by the target. The target is never a member. The cohort may be empty.
func (m *RatingMatrix) SelectCohort(userId int32, overlapFraction float64, minWatched int) (*Cohort, error) {
	watched, err := m.WatchedSet(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if watched.Count() < uint(minWatched) {
		return nil, errors.Annotatef(ErrInsufficientData, "user %d watched %d items, at least %d required",
			userId, watched.Count(), minWatched)
	}
	target, _ := m.users.Lookup(userId)

	// count watched items per user through the columns
	counts := make([]int32, m.users.Count())
	for col, ok := watched.NextSet(0); ok; col, ok = watched.NextSet(col + 1) {
		for _, row := range m.columns[col].indices {
			counts[row]++
		}
	}
	bound := float64(watched.Count()) * overlapFraction
	members := mapset.NewThreadUnsafeSet[int32]()
	for row, count := range counts {
		if int32(row) == target || count == 0 {
			continue
		}
		if float64(count) > bound {
			memberId, _ := m.users.Key(int32(row))
			members.Add(memberId)
		}
	}
	return &Cohort{
		Target:  userId,
		Watched: watched,
		Members: members,
	}, nil
}
