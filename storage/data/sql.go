// Copyright 2020 gorse Project Authors
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

package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const bufSize = 1

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLItem is a catalog row. Genres are joined by "|" as in MovieLens.
type SQLItem struct {
	ItemId int32  `gorm:"column:item_id;primaryKey;autoIncrement:false"`
	Title  string `gorm:"column:title;type:varchar(512);not null"`
	Genres string `gorm:"column:genres;type:varchar(256);not null"`
}

func NewSQLItem(item dataset.Item) SQLItem {
	return SQLItem{
		ItemId: item.ItemId,
		Title:  item.Title,
		Genres: strings.Join(item.Genres, "|"),
	}
}

func (item SQLItem) toItem() dataset.Item {
	var genres []string
	if item.Genres != "" {
		genres = strings.Split(item.Genres, "|")
	}
	return dataset.Item{ItemId: item.ItemId, Title: item.Title, Genres: genres}
}

// SQLRating is a rating row keyed by (user_id, item_id).
type SQLRating struct {
	UserId    int32   `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ItemId    int32   `gorm:"column:item_id;primaryKey;autoIncrement:false;index"`
	Rating    float64 `gorm:"column:rating;not null"`
	Timestamp int64   `gorm:"column:time_stamp;not null"`
}

func NewSQLRating(rating dataset.Rating) SQLRating {
	return SQLRating{
		UserId:    rating.UserId,
		ItemId:    rating.ItemId,
		Rating:    rating.Rating,
		Timestamp: rating.Timestamp,
	}
}

func (rating SQLRating) toRating() dataset.Rating {
	return dataset.Rating{
		UserId:    rating.UserId,
		ItemId:    rating.ItemId,
		Rating:    rating.Rating,
		Timestamp: rating.Timestamp,
	}
}

// SQLDatabase stores data in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init tables and indices.
func (d *SQLDatabase) Init() error {
	if err := d.gormDB.AutoMigrate(&SQLItem{}, &SQLRating{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Ping() error {
	return d.client.Ping()
}

// Close connection.
func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

// Purge deletes all items and ratings.
func (d *SQLDatabase) Purge() error {
	for _, tableName := range []string{d.ItemsTable(), d.RatingsTable()} {
		if err := d.gormDB.Exec(fmt.Sprintf("DELETE FROM %s", tableName)).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// BatchInsertItems inserts items. Existing items are overwritten.
func (d *SQLDatabase) BatchInsertItems(ctx context.Context, items []dataset.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := lo.Map(dedupItems(items), func(item dataset.Item, _ int) SQLItem {
		return NewSQLItem(item)
	})
	err := d.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "genres"}),
	}).Create(rows).Error
	return errors.Trace(err)
}

// BatchInsertRatings inserts ratings. An existing rating of the same user on
// the same item is overwritten.
func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []dataset.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	rows := lo.Map(dedupRatings(ratings), func(rating dataset.Rating, _ int) SQLRating {
		return NewSQLRating(rating)
	})
	err := d.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "time_stamp"}),
	}).Create(rows).Error
	return errors.Trace(err)
}

// GetItems returns all items ordered by id.
func (d *SQLDatabase) GetItems(ctx context.Context) ([]dataset.Item, error) {
	var rows []SQLItem
	if err := d.gormDB.WithContext(ctx).Order("item_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLItem, _ int) dataset.Item {
		return row.toItem()
	}), nil
}

func (d *SQLDatabase) CountRatings(ctx context.Context) (int, error) {
	var count int64
	if err := d.gormDB.WithContext(ctx).Model(&SQLRating{}).Count(&count).Error; err != nil {
		return 0, errors.Trace(err)
	}
	return int(count), nil
}

// GetUserRatings returns the ratings of a user ordered by item id.
func (d *SQLDatabase) GetUserRatings(ctx context.Context, userId int32) ([]dataset.Rating, error) {
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Where("user_id = ?", userId).Order("item_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLRating, _ int) dataset.Rating {
		return row.toRating()
	}), nil
}

// GetRatingStream reads ratings by stream.
func (d *SQLDatabase) GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating, bufSize)
	errChan := make(chan error, 1)
	go func() {
		defer close(ratingChan)
		defer close(errChan)
		// send query
		result, err := d.gormDB.WithContext(ctx).Model(&SQLRating{}).
			Select("user_id, item_id, rating, time_stamp").
			Order("user_id, item_id").
			Rows()
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		// fetch result
		ratings := make([]dataset.Rating, 0, batchSize)
		defer result.Close()
		for result.Next() {
			var rating dataset.Rating
			if err = result.Scan(&rating.UserId, &rating.ItemId, &rating.Rating, &rating.Timestamp); err != nil {
				errChan <- errors.Trace(err)
				return
			}
			ratings = append(ratings, rating)
			if len(ratings) == batchSize {
				select {
				case ratingChan <- ratings:
				case <-ctx.Done():
					errChan <- errors.Trace(ctx.Err())
					return
				}
				ratings = make([]dataset.Rating, 0, batchSize)
			}
		}
		if err = result.Err(); err != nil {
			errChan <- errors.Trace(err)
			return
		}
		if len(ratings) > 0 {
			ratingChan <- ratings
		}
		errChan <- nil
	}()
	return ratingChan, errChan
}
