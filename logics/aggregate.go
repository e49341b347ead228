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

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/samber/lo"
)

// Score is the recommendation score of an item.
type Score struct {
	ItemId int32   `json:"item_id"`
	Score  float64 `json:"score"`
}

// RatingLog provides every rating of a user, popular items or not, in
// insertion order.
type RatingLog interface {
	GetUserRatings(userId int32) []dataset.Rating
}

// Dataset is a catalog together with its full rating log.
type Dataset interface {
	Catalog
	RatingLog
}

// AggregateScores joins similar users to their full rating log and averages
// the ratings weighted by correlation per item. Ratings of the target and of
// items missing from the catalog are never included. Duplicated ratings of
// a user on an item resolve to the latest one. Scores are ordered by item id.
func AggregateScores(data Dataset, targetId int32, topUsers []Similarity) []Score {
	sums := make(map[int32]float64)
	counts := make(map[int32]int)
	for _, user := range topUsers {
		if user.Id == targetId {
			continue
		}
		latest := make(map[int32]dataset.Rating)
		for _, rating := range data.GetUserRatings(user.Id) {
			if _, ok := data.GetItem(rating.ItemId); !ok {
				continue
			}
			if prev, exist := latest[rating.ItemId]; !exist || prev.Timestamp <= rating.Timestamp {
				latest[rating.ItemId] = rating
			}
		}
		for itemId, rating := range latest {
			sums[itemId] += user.Correlation * rating.Rating
			counts[itemId]++
		}
	}
	scores := make([]Score, 0, len(counts))
	for itemId, count := range counts {
		scores = append(scores, Score{ItemId: itemId, Score: sums[itemId] / float64(count)})
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].ItemId < scores[j].ItemId
	})
	return scores
}

// MinMaxScale rescales scores linearly into [0, scaleMax]. If every score is
// equal, each one maps to scaleMax.
func MinMaxScale(scores []Score, scaleMax float64) []Score {
	if len(scores) == 0 {
		return nil
	}
	minScore := lo.MinBy(scores, func(a, b Score) bool { return a.Score < b.Score }).Score
	maxScore := lo.MaxBy(scores, func(a, b Score) bool { return a.Score > b.Score }).Score
	return lo.Map(scores, func(s Score, _ int) Score {
		if maxScore == minScore {
			return Score{ItemId: s.ItemId, Score: scaleMax}
		}
		scaled := (s.Score - minScore) / (maxScore - minScore) * scaleMax
		return Score{ItemId: s.ItemId, Score: min(max(scaled, 0), scaleMax)}
	})
}

// FilterScores keeps scores strictly above cutoff, ordered by score
// descending and then by item id ascending.
func FilterScores(scores []Score, cutoff float64) []Score {
	filtered := lo.Filter(scores, func(s Score, _ int) bool {
		return s.Score > cutoff
	})
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].ItemId < filtered[j].ItemId
	})
	return filtered
}
