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

package dataset

import (
	"time"

	"github.com/samber/lo"
)

// Item is an entry of the movie catalog.
type Item struct {
	ItemId int32
	Title  string
	Genres []string
}

// Rating is a single explicit rating of a user on an item.
type Rating struct {
	UserId    int32
	ItemId    int32
	Rating    float64
	Timestamp int64
}

// Time converts the Unix timestamp of a rating.
func (r Rating) Time() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

// Dataset is an immutable snapshot of the item catalog and the rating log.
type Dataset struct {
	timestamp time.Time
	items     []Item
	itemIndex map[int32]int
	ratings   []Rating
	userIndex map[int32][]int
}

func NewDataset(timestamp time.Time, itemCount, ratingCount int) *Dataset {
	return &Dataset{
		timestamp: timestamp,
		items:     make([]Item, 0, itemCount),
		itemIndex: make(map[int32]int, itemCount),
		ratings:   make([]Rating, 0, ratingCount),
		userIndex: make(map[int32][]int),
	}
}

func (d *Dataset) GetTimestamp() time.Time {
	return d.timestamp
}

func (d *Dataset) GetItems() []Item {
	return d.items
}

func (d *Dataset) CountItems() int {
	return len(d.items)
}

func (d *Dataset) GetRatings() []Rating {
	return d.ratings
}

func (d *Dataset) CountRatings() int {
	return len(d.ratings)
}

// GetItem looks up an item of the catalog.
func (d *Dataset) GetItem(itemId int32) (Item, bool) {
	if i, ok := d.itemIndex[itemId]; ok {
		return d.items[i], true
	}
	return Item{}, false
}

// Title returns the title of an item, or an empty string if it is unknown.
func (d *Dataset) Title(itemId int32) string {
	item, _ := d.GetItem(itemId)
	return item.Title
}

// GetUserRatings returns all ratings of a user in insertion order.
func (d *Dataset) GetUserRatings(userId int32) []Rating {
	return lo.Map(d.userIndex[userId], func(i int, _ int) Rating {
		return d.ratings[i]
	})
}

// CountUsers returns the number of distinct users in the rating log.
func (d *Dataset) CountUsers() int {
	return len(d.userIndex)
}

// AddItem appends an item to the catalog. A duplicated item id replaces the previous entry.
func (d *Dataset) AddItem(item Item) {
	if i, ok := d.itemIndex[item.ItemId]; ok {
		d.items[i] = item
		return
	}
	d.itemIndex[item.ItemId] = len(d.items)
	d.items = append(d.items, item)
}

func (d *Dataset) AddRating(rating Rating) {
	d.userIndex[rating.UserId] = append(d.userIndex[rating.UserId], len(d.ratings))
	d.ratings = append(d.ratings, rating)
}
