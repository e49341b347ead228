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

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/config"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// sparseVector stores the non-missing cells of a row or a column. Indices are
// sorted ascending. Timestamps are only kept for rows.
type sparseVector struct {
	indices    []int32
	values     []float64
	timestamps []int64
}

func (v *sparseVector) Len() int {
	return len(v.indices)
}

func (v *sparseVector) Less(i, j int) bool {
	return v.indices[i] < v.indices[j]
}

func (v *sparseVector) Swap(i, j int) {
	v.indices[i], v.indices[j] = v.indices[j], v.indices[i]
	v.values[i], v.values[j] = v.values[j], v.values[i]
	if v.timestamps != nil {
		v.timestamps[i], v.timestamps[j] = v.timestamps[j], v.timestamps[i]
	}
}

func (v *sparseVector) get(index int32) (float64, bool) {
	i := sort.Search(len(v.indices), func(i int) bool {
		return v.indices[i] >= index
	})
	if i < len(v.indices) && v.indices[i] == index {
		return v.values[i], true
	}
	return 0, false
}

// MatrixOptions controls how the rating matrix is built.
type MatrixOptions struct {
	// PopularityThreshold is the rating count an item must exceed to be kept.
	PopularityThreshold int
	// MissingItemPolicy is either config.MissingItemSkip or config.MissingItemError.
	MissingItemPolicy string
}

// NewMatrixOptions extracts matrix options from the recommend configuration.
func NewMatrixOptions(cfg config.RecommendConfig) MatrixOptions {
	return MatrixOptions{
		PopularityThreshold: cfg.PopularityThreshold,
		MissingItemPolicy:   cfg.MissingItemPolicy,
	}
}

// RatingMatrix is a sparse user×item rating matrix restricted to popular
// items. It is read-only after construction and safe for concurrent use.
type RatingMatrix struct {
	users   *dataset.FreqDict[int32]
	items   *dataset.FreqDict[int32]
	rows    []sparseVector
	columns []sparseVector
	skipped int
}

// NewRatingMatrix builds a rating matrix from a catalog and a rating log.
// Ratings of unknown items are skipped or rejected depending on the policy.
// If a user rated an item several times, the latest rating wins.
func NewRatingMatrix(catalog []dataset.Item, ratings []dataset.Rating, opts MatrixOptions) (*RatingMatrix, error) {
	known := mapset.NewThreadUnsafeSetWithSize[int32](len(catalog))
	for _, item := range catalog {
		known.Add(item.ItemId)
	}

	// resolve duplicates and unknown items
	type cell struct {
		userId int32
		itemId int32
	}
	latest := make(map[cell]int, len(ratings))
	skipped := 0
	for i, rating := range ratings {
		if !known.Contains(rating.ItemId) {
			if opts.MissingItemPolicy == config.MissingItemError {
				return nil, errors.Annotatef(ErrMissingItem, "rating (user %d, item %d)", rating.UserId, rating.ItemId)
			}
			skipped++
			continue
		}
		key := cell{userId: rating.UserId, itemId: rating.ItemId}
		if j, exist := latest[key]; !exist || ratings[j].Timestamp <= rating.Timestamp {
			latest[key] = i
		}
	}
	if skipped > 0 {
		log.Logger().Warn("skip ratings of unknown items", zap.Int("n_skipped", skipped))
	}
	selected := lo.Values(latest)
	sort.Ints(selected)

	// count ratings per item
	counter := dataset.NewFreqDict[int32]()
	for _, i := range selected {
		counter.Id(ratings[i].ItemId)
	}
	var retained []int32
	for id := int32(0); id < counter.Count(); id++ {
		if counter.Freq(id) > opts.PopularityThreshold {
			itemId, _ := counter.Key(id)
			retained = append(retained, itemId)
		}
	}
	sort.Slice(retained, func(i, j int) bool {
		return retained[i] < retained[j]
	})
	m := &RatingMatrix{
		users:   dataset.NewFreqDict[int32](),
		items:   dataset.NewFreqDict[int32](),
		skipped: skipped,
	}
	for _, itemId := range retained {
		m.items.NotCount(itemId)
	}

	// assign rows in ascending user order
	kept := lo.Filter(selected, func(i int, _ int) bool {
		_, ok := m.items.Lookup(ratings[i].ItemId)
		return ok
	})
	userIds := lo.Uniq(lo.Map(kept, func(i int, _ int) int32 {
		return ratings[i].UserId
	}))
	sort.Slice(userIds, func(i, j int) bool {
		return userIds[i] < userIds[j]
	})
	for _, userId := range userIds {
		m.users.NotCount(userId)
	}

	// pivot
	m.rows = make([]sparseVector, m.users.Count())
	m.columns = make([]sparseVector, m.items.Count())
	for _, i := range kept {
		rating := ratings[i]
		row, _ := m.users.Lookup(rating.UserId)
		col, _ := m.items.Lookup(rating.ItemId)
		m.users.Id(rating.UserId)
		m.items.Id(rating.ItemId)
		m.rows[row].indices = append(m.rows[row].indices, col)
		m.rows[row].values = append(m.rows[row].values, rating.Rating)
		m.rows[row].timestamps = append(m.rows[row].timestamps, rating.Timestamp)
		m.columns[col].indices = append(m.columns[col].indices, row)
		m.columns[col].values = append(m.columns[col].values, rating.Rating)
	}
	for i := range m.rows {
		sort.Sort(&m.rows[i])
	}
	for i := range m.columns {
		sort.Sort(&m.columns[i])
	}
	log.Logger().Debug("build rating matrix",
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_users", m.CountUsers()),
		zap.Int("n_items", m.CountItems()),
		zap.Int("n_cells", len(kept)))
	return m, nil
}

// NewRatingMatrixFromDataset builds a rating matrix from a dataset snapshot.
func NewRatingMatrixFromDataset(ds *dataset.Dataset, opts MatrixOptions) (*RatingMatrix, error) {
	return NewRatingMatrix(ds.GetItems(), ds.GetRatings(), opts)
}

// CountUsers returns the number of rows.
func (m *RatingMatrix) CountUsers() int {
	return int(m.users.Count())
}

// CountItems returns the number of retained items.
func (m *RatingMatrix) CountItems() int {
	return int(m.items.Count())
}

// CountRatings returns the number of non-missing cells.
func (m *RatingMatrix) CountRatings() int {
	return lo.SumBy(m.rows, func(row sparseVector) int {
		return row.Len()
	})
}

// SkippedRatings returns the number of ratings dropped because their item is
// missing from the catalog.
func (m *RatingMatrix) SkippedRatings() int {
	return m.skipped
}

// Users returns user ids in ascending order.
func (m *RatingMatrix) Users() []int32 {
	return m.keys(m.users)
}

// Items returns retained item ids in ascending order.
func (m *RatingMatrix) Items() []int32 {
	return m.keys(m.items)
}

func (m *RatingMatrix) keys(dict *dataset.FreqDict[int32]) []int32 {
	keys := make([]int32, dict.Count())
	for i := range keys {
		keys[i], _ = dict.Key(int32(i))
	}
	return keys
}

// HasUser reports whether the user has at least one retained rating.
func (m *RatingMatrix) HasUser(userId int32) bool {
	_, ok := m.users.Lookup(userId)
	return ok
}

// HasItem reports whether the item survived popularity pruning.
func (m *RatingMatrix) HasItem(itemId int32) bool {
	_, ok := m.items.Lookup(itemId)
	return ok
}

// ItemCount returns the number of ratings of a retained item.
func (m *RatingMatrix) ItemCount(itemId int32) int {
	col, ok := m.items.Lookup(itemId)
	if !ok {
		return 0
	}
	return m.items.Freq(col)
}

// Rating returns the rating of a cell. The second result is false if the cell
// is unrated.
func (m *RatingMatrix) Rating(userId, itemId int32) (float64, bool) {
	row, ok := m.users.Lookup(userId)
	if !ok {
		return 0, false
	}
	col, ok := m.items.Lookup(itemId)
	if !ok {
		return 0, false
	}
	return m.rows[row].get(col)
}

// UserRatings returns the retained ratings of a user ordered by item id.
func (m *RatingMatrix) UserRatings(userId int32) []dataset.Rating {
	row, ok := m.users.Lookup(userId)
	if !ok {
		return nil
	}
	vec := &m.rows[row]
	ratings := make([]dataset.Rating, vec.Len())
	for i, col := range vec.indices {
		itemId, _ := m.items.Key(col)
		ratings[i] = dataset.Rating{
			UserId:    userId,
			ItemId:    itemId,
			Rating:    vec.values[i],
			Timestamp: vec.timestamps[i],
		}
	}
	return ratings
}
