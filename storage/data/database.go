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
	"sort"
	"strings"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
	"moul.io/zapgorm2"
)

var ErrNoDatabase = errors.NotAssignedf("database")

// Database stores the item catalog and the rating log.
type Database interface {
	Init() error
	Ping() error
	Close() error
	Purge() error
	BatchInsertItems(ctx context.Context, items []dataset.Item) error
	BatchInsertRatings(ctx context.Context, ratings []dataset.Rating) error
	GetItems(ctx context.Context) ([]dataset.Item, error)
	CountRatings(ctx context.Context) (int, error)
	GetUserRatings(ctx context.Context, userId int32) ([]dataset.Rating, error)
	GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error)
}

// Open a connection to a database.
func Open(path, tablePrefix string) (Database, error) {
	var err error
	if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		// probe isolation variable name
		isolationVarName, err := storage.ProbeMySQLIsolationVariableName(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		// append parameters
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"sql_mode":       "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
			isolationVarName: "'READ-UNCOMMITTED'",
			"parseTime":      "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = sql.Open("mysql", name); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{DSN: path}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		if database.client, err = database.gormDB.DB(); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.MongoPrefix) || strings.HasPrefix(path, storage.MongoSrvPrefix) {
		// connect to database
		database := new(MongoDB)
		opts := options.Client()
		opts.ApplyURI(path)
		if database.client, err = mongo.Connect(context.Background(), opts); err != nil {
			return nil, errors.Trace(err)
		}
		// parse DSN and extract database name
		if cs, err := connstring.ParseAndValidate(path); err != nil {
			return nil, errors.Trace(err)
		} else {
			database.dbName = cs.Database
			database.TablePrefix = storage.TablePrefix(tablePrefix)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = sql.Open("sqlite", name); err != nil {
			return nil, errors.Trace(err)
		}
		gormConfig := storage.NewGORMConfig(tablePrefix)
		gormConfig.Logger = &zapgorm2.Logger{
			ZapLogger:                 log.Logger(),
			LogLevel:                  logger.Warn,
			SlowThreshold:             10 * time.Second,
			SkipCallerLookup:          false,
			IgnoreRecordNotFoundError: false,
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, gormConfig)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", log.RedactDBURL(path))
}

// dedupRatings keeps the latest rating of each (user, item) pair. Ties on
// timestamp are resolved in favor of the later rating.
func dedupRatings(ratings []dataset.Rating) []dataset.Rating {
	type key struct {
		userId int32
		itemId int32
	}
	latest := make(map[key]int, len(ratings))
	for i, rating := range ratings {
		k := key{userId: rating.UserId, itemId: rating.ItemId}
		if j, exist := latest[k]; !exist || ratings[j].Timestamp <= rating.Timestamp {
			latest[k] = i
		}
	}
	indices := lo.Values(latest)
	sort.Ints(indices)
	return lo.Map(indices, func(i int, _ int) dataset.Rating {
		return ratings[i]
	})
}

// dedupItems keeps the last occurrence of each item.
func dedupItems(items []dataset.Item) []dataset.Item {
	last := make(map[int32]int, len(items))
	for i, item := range items {
		last[item.ItemId] = i
	}
	return lo.Filter(items, func(item dataset.Item, i int) bool {
		return last[item.ItemId] == i
	})
}

// LoadDataset reads the catalog and the rating log into a dataset.
func LoadDataset(ctx context.Context, database Database, batchSize int) (*dataset.Dataset, error) {
	start := time.Now()
	items, err := database.GetItems(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	n, err := database.CountRatings(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	data := dataset.NewDataset(time.Now(), len(items), n)
	for _, item := range items {
		data.AddItem(item)
	}
	ratingChan, errChan := database.GetRatingStream(ctx, batchSize)
	for ratings := range ratingChan {
		for _, rating := range ratings {
			data.AddRating(rating)
		}
	}
	if err = <-errChan; err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset from database",
		zap.Int("n_items", data.CountItems()),
		zap.Int("n_ratings", data.CountRatings()),
		zap.Duration("used_time", time.Since(start)))
	return data, nil
}
