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
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Source tells which branch produced a candidate.
type Source string

const (
	SourceUserBased Source = "user_based"
	SourceItemBased Source = "item_based"
)

// Candidate is an entry of the hybrid recommendation list.
type Candidate struct {
	ItemId int32   `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
}

// HybridList is the ordered output of the recommender.
type HybridList []Candidate

// Titles returns the titles in recommendation order.
func (l HybridList) Titles() []string {
	return lo.Map(l, func(c Candidate, _ int) string {
		return c.Title
	})
}

// Catalog resolves item ids to catalog entries.
type Catalog interface {
	GetItem(itemId int32) (dataset.Item, bool)
}

// ItemFilter decides whether an item may be recommended.
type ItemFilter func(item dataset.Item) (bool, error)

// accept evaluates the filter. Items failing evaluation are rejected.
func (f ItemFilter) accept(item dataset.Item) bool {
	if f == nil {
		return true
	}
	ok, err := f(item)
	if err != nil {
		log.Logger().Error("failed to evaluate item filter", zap.Int32("item_id", item.ItemId), zap.Error(err))
		return false
	}
	return ok
}

// ComposeOptions controls how the two branches are merged.
type ComposeOptions struct {
	NumUserBased int
	NumItemBased int
	Filter       ItemFilter
}

// Compose merges user-based scores and item-based neighbors into a single
// list. User-based candidates come first. Duplicates between the branches are
// kept. Items missing from the catalog or rejected by the filter are dropped
// before capping.
func Compose(userBased []Score, itemBased []Similarity, catalog Catalog, opts ComposeOptions) HybridList {
	var list HybridList
	n := 0
	for _, score := range userBased {
		if n >= opts.NumUserBased {
			break
		}
		item, ok := catalog.GetItem(score.ItemId)
		if !ok || !opts.Filter.accept(item) {
			continue
		}
		list = append(list, Candidate{ItemId: item.ItemId, Title: item.Title, Score: score.Score, Source: SourceUserBased})
		n++
	}
	n = 0
	for _, neighbor := range itemBased {
		if n >= opts.NumItemBased {
			break
		}
		item, ok := catalog.GetItem(neighbor.Id)
		if !ok || !opts.Filter.accept(item) {
			continue
		}
		list = append(list, Candidate{ItemId: item.ItemId, Title: item.Title, Score: neighbor.Correlation, Source: SourceItemBased})
		n++
	}
	return list
}

// SelectSeed picks the seed of the item-based branch: the most recent rating
// equal to seedRating, or else the most recent of the highest ratings. Equal
// timestamps are broken by the larger item id.
func SelectSeed(ratings []dataset.Rating, seedRating float64) (int32, error) {
	if len(ratings) == 0 {
		return 0, errors.Annotate(ErrInsufficientData, "no rating to select seed from")
	}
	candidates := lo.Filter(ratings, func(r dataset.Rating, _ int) bool {
		return r.Rating == seedRating
	})
	if len(candidates) == 0 {
		highest := lo.MaxBy(ratings, func(a, b dataset.Rating) bool {
			return a.Rating > b.Rating
		}).Rating
		candidates = lo.Filter(ratings, func(r dataset.Rating, _ int) bool {
			return r.Rating == highest
		})
	}
	seed := lo.MaxBy(candidates, func(a, b dataset.Rating) bool {
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.ItemId > b.ItemId
	})
	return seed.ItemId, nil
}
