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

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoItem struct {
	ItemId int32    `bson:"_id"`
	Title  string   `bson:"title"`
	Genres []string `bson:"genres"`
}

type mongoRating struct {
	UserId    int32   `bson:"user_id"`
	ItemId    int32   `bson:"item_id"`
	Rating    float64 `bson:"rating"`
	Timestamp int64   `bson:"timestamp"`
}

func (r mongoRating) toRating() dataset.Rating {
	return dataset.Rating{UserId: r.UserId, ItemId: r.ItemId, Rating: r.Rating, Timestamp: r.Timestamp}
}

// MongoDB is the data storage based on MongoDB.
type MongoDB struct {
	storage.TablePrefix
	client *mongo.Client
	dbName string
}

// Init collections and indices in MongoDB.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	// list collections
	var hasItems, hasRatings bool
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	for _, collectionName := range collections {
		switch collectionName {
		case db.ItemsTable():
			hasItems = true
		case db.RatingsTable():
			hasRatings = true
		}
	}
	// create collections
	if !hasItems {
		if err = d.CreateCollection(ctx, db.ItemsTable()); err != nil {
			return errors.Trace(err)
		}
	}
	if !hasRatings {
		if err = d.CreateCollection(ctx, db.RatingsTable()); err != nil {
			return errors.Trace(err)
		}
	}
	// create indices
	if _, err = d.Collection(db.RatingsTable()).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "item_id", Value: 1}},
		},
	}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (db *MongoDB) Ping() error {
	return db.client.Ping(context.Background(), nil)
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

// Purge deletes all items and ratings.
func (db *MongoDB) Purge() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	for _, name := range []string{db.ItemsTable(), db.RatingsTable()} {
		if _, err := d.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// BatchInsertItems inserts items. Existing items are overwritten.
func (db *MongoDB) BatchInsertItems(ctx context.Context, items []dataset.Item) error {
	if len(items) == 0 {
		return nil
	}
	models := lo.Map(dedupItems(items), func(item dataset.Item, _ int) mongo.WriteModel {
		return mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"_id": bson.M{"$eq": item.ItemId}}).
			SetUpdate(bson.M{"$set": mongoItem{ItemId: item.ItemId, Title: item.Title, Genres: item.Genres}})
	})
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

// BatchInsertRatings inserts ratings. An existing rating of the same user on
// the same item is overwritten.
func (db *MongoDB) BatchInsertRatings(ctx context.Context, ratings []dataset.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	models := lo.Map(dedupRatings(ratings), func(rating dataset.Rating, _ int) mongo.WriteModel {
		return mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"user_id": rating.UserId, "item_id": rating.ItemId}).
			SetUpdate(bson.M{"$set": mongoRating{
				UserId:    rating.UserId,
				ItemId:    rating.ItemId,
				Rating:    rating.Rating,
				Timestamp: rating.Timestamp,
			}})
	})
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

// GetItems returns all items ordered by id.
func (db *MongoDB) GetItems(ctx context.Context) ([]dataset.Item, error) {
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	r, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var items []dataset.Item
	for r.Next(ctx) {
		var doc mongoItem
		if err = r.Decode(&doc); err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, dataset.Item{ItemId: doc.ItemId, Title: doc.Title, Genres: doc.Genres})
	}
	return items, errors.Trace(r.Err())
}

func (db *MongoDB) CountRatings(ctx context.Context) (int, error) {
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	n, err := c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Trace(err)
	}
	return int(n), nil
}

// GetUserRatings returns the ratings of a user ordered by item id.
func (db *MongoDB) GetUserRatings(ctx context.Context, userId int32) ([]dataset.Rating, error) {
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	r, err := c.Find(ctx, bson.M{"user_id": userId}, options.Find().SetSort(bson.D{{Key: "item_id", Value: 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var ratings []dataset.Rating
	for r.Next(ctx) {
		var doc mongoRating
		if err = r.Decode(&doc); err != nil {
			return nil, errors.Trace(err)
		}
		ratings = append(ratings, doc.toRating())
	}
	return ratings, errors.Trace(r.Err())
}

// GetRatingStream reads ratings by stream.
func (db *MongoDB) GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating, bufSize)
	errChan := make(chan error, 1)
	go func() {
		defer close(ratingChan)
		defer close(errChan)
		c := db.client.Database(db.dbName).Collection(db.RatingsTable())
		opt := options.Find().
			SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}}).
			SetBatchSize(int32(batchSize))
		r, err := c.Find(ctx, bson.M{}, opt)
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		defer r.Close(ctx)
		ratings := make([]dataset.Rating, 0, batchSize)
		for r.Next(ctx) {
			var doc mongoRating
			if err = r.Decode(&doc); err != nil {
				errChan <- errors.Trace(err)
				return
			}
			ratings = append(ratings, doc.toRating())
			if len(ratings) == batchSize {
				ratingChan <- ratings
				ratings = make([]dataset.Rating, 0, batchSize)
			}
		}
		if err = r.Err(); err != nil {
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
