// Copyright 2021 gorse Project Authors
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

package cache

import (
	"context"
	"strings"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/logics"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

var (
	ErrObjectNotExist = errors.NotFoundf("object")
	ErrNoDatabase     = errors.NotAssignedf("database")
)

// Recommendation is a cached recommendation list of a user.
type Recommendation struct {
	UserId    int32             `json:"user_id"`
	Items     logics.HybridList `json:"items"`
	Timestamp time.Time         `json:"timestamp"`
}

// Database stores precomputed recommendations.
type Database interface {
	Ping() error
	Close() error
	SetRecommendation(ctx context.Context, recommendation Recommendation, ttl time.Duration) error
	GetRecommendation(ctx context.Context, userId int32) (Recommendation, error)
	DeleteRecommendation(ctx context.Context, userId int32) error
}

// Open a connection to a cache store.
func Open(path, tablePrefix string) (Database, error) {
	if strings.HasPrefix(path, storage.RedisPrefix) || strings.HasPrefix(path, storage.RedissPrefix) {
		opt, err := redis.ParseURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		database := new(Redis)
		database.client = redis.NewClient(opt)
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", log.RedactDBURL(path))
}
