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
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/common/heap"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Similarity is the correlation between the target (a user or an item) and
// a neighbor.
type Similarity struct {
	Id          int32   `json:"id"`
	Correlation float64 `json:"correlation"`
}

// Pearson returns the Pearson correlation of two aligned vectors. The second
// result is false if the correlation is undefined: fewer than two
// observations or zero variance on either side.
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return 0, false
	}
	corr := stat.Correlation(x, y, nil)
	if math.IsNaN(corr) || math.IsInf(corr, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, corr)), true
}

// coObserved aligns the values observed in both vectors. If mask is not nil,
// only indices in mask are used.
func coObserved(a, b *sparseVector, mask *bitset.BitSet) (x, y []float64) {
	for i, j := 0, 0; i < len(a.indices) && j < len(b.indices); {
		switch {
		case a.indices[i] < b.indices[j]:
			i++
		case a.indices[i] > b.indices[j]:
			j++
		default:
			if mask == nil || mask.Test(uint(a.indices[i])) {
				x = append(x, a.values[i])
				y = append(y, b.values[j])
			}
			i++
			j++
		}
	}
	return
}

func sortSimilarities(similarities []Similarity) {
	sort.Slice(similarities, func(i, j int) bool {
		if similarities[i].Correlation != similarities[j].Correlation {
			return similarities[i].Correlation > similarities[j].Correlation
		}
		return similarities[i].Id < similarities[j].Id
	})
}

// TopUsers correlates the target with every cohort member over the watched
// items and keeps members with correlation at least threshold. Results are
// ordered by correlation descending and then by user id ascending.
func (m *RatingMatrix) TopUsers(cohort *Cohort, threshold float64) []Similarity {
	target, ok := m.users.Lookup(cohort.Target)
	if !ok {
		return nil
	}
	var similarities []Similarity
	for _, memberId := range cohort.SortedMembers() {
		if memberId == cohort.Target {
			continue
		}
		row, ok := m.users.Lookup(memberId)
		if !ok {
			continue
		}
		x, y := coObserved(&m.rows[target], &m.rows[row], cohort.Watched)
		corr, ok := Pearson(x, y)
		if ok && corr >= threshold {
			similarities = append(similarities, Similarity{Id: memberId, Correlation: corr})
		}
	}
	sortSimilarities(similarities)
	return similarities
}

// CorrelationTable holds pairwise correlations between the target and the
// members of its cohort.
type CorrelationTable struct {
	ids     []int32
	index   map[int32]int
	values  []float64
	defined *bitset.BitSet
}

// Ids returns the users in the table in ascending order.
func (t *CorrelationTable) Ids() []int32 {
	return t.ids
}

// Get returns the correlation between two users. The second result is false
// if either user is absent or the correlation is undefined.
func (t *CorrelationTable) Get(a, b int32) (float64, bool) {
	i, ok := t.index[a]
	if !ok {
		return 0, false
	}
	j, ok := t.index[b]
	if !ok {
		return 0, false
	}
	k := i*len(t.ids) + j
	if !t.defined.Test(uint(k)) {
		return 0, false
	}
	return t.values[k], true
}

// CorrelationMatrix computes the correlation between every pair of users in
// the cohort and the target, restricted to the watched items.
func (m *RatingMatrix) CorrelationMatrix(cohort *Cohort) *CorrelationTable {
	ids := append(cohort.SortedMembers(), cohort.Target)
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	n := len(ids)
	table := &CorrelationTable{
		ids:     ids,
		index:   make(map[int32]int, n),
		values:  make([]float64, n*n),
		defined: bitset.New(uint(n * n)),
	}
	for i, id := range ids {
		table.index[id] = i
	}
	for i := 0; i < n; i++ {
		a, ok := m.users.Lookup(ids[i])
		if !ok {
			continue
		}
		for j := i; j < n; j++ {
			b, ok := m.users.Lookup(ids[j])
			if !ok {
				continue
			}
			x, y := coObserved(&m.rows[a], &m.rows[b], cohort.Watched)
			if corr, ok := Pearson(x, y); ok {
				table.values[i*n+j] = corr
				table.values[j*n+i] = corr
				table.defined.Set(uint(i*n + j))
				table.defined.Set(uint(j*n + i))
			}
		}
	}
	return table
}

// SimilarItems returns the k items whose rating columns correlate best with
// the seed item. The seed itself is excluded. Items rejected by filter are
// skipped. A seed without correlated neighbors gives an empty list.
func (m *RatingMatrix) SimilarItems(itemId int32, k int, filter func(itemId int32) bool) ([]Similarity, error) {
	seed, ok := m.items.Lookup(itemId)
	if !ok {
		return nil, errors.Annotatef(ErrUnknownItem, "item %d", itemId)
	}
	topK := heap.NewTopKFilter[int32, float64](k)
	for col := range m.columns {
		if int32(col) == seed {
			continue
		}
		neighborId, _ := m.items.Key(int32(col))
		if filter != nil && !filter(neighborId) {
			continue
		}
		x, y := coObserved(&m.columns[seed], &m.columns[col], nil)
		if corr, ok := Pearson(x, y); ok {
			topK.Push(neighborId, corr)
		}
	}
	elems := topK.PopAll()
	similarities := make([]Similarity, len(elems))
	for i, elem := range elems {
		similarities[i] = Similarity{Id: elem.Value, Correlation: elem.Weight}
	}
	return similarities, nil
}
