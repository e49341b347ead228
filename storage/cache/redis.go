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
	"encoding/json"
	"strconv"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Redis cache storage.
type Redis struct {
	storage.TablePrefix
	client *redis.Client
}

func (r *Redis) recommendKey(userId int32) string {
	return r.Key("recommend/" + strconv.Itoa(int(userId)))
}

func (r *Redis) Ping() error {
	return r.client.Ping(context.Background()).Err()
}

// Close redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// SetRecommendation stores the recommendation of a user. A zero ttl means no
// expiration.
func (r *Redis) SetRecommendation(ctx context.Context, recommendation Recommendation, ttl time.Duration) error {
	data, err := json.Marshal(recommendation)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(r.client.Set(ctx, r.recommendKey(recommendation.UserId), data, ttl).Err())
}

// GetRecommendation returns the recommendation of a user, or
// ErrObjectNotExist if there is none.
func (r *Redis) GetRecommendation(ctx context.Context, userId int32) (Recommendation, error) {
	data, err := r.client.Get(ctx, r.recommendKey(userId)).Bytes()
	if err == redis.Nil {
		return Recommendation{}, errors.Annotatef(ErrObjectNotExist, "recommendation of user %d", userId)
	} else if err != nil {
		return Recommendation{}, errors.Trace(err)
	}
	var recommendation Recommendation
	if err = json.Unmarshal(data, &recommendation); err != nil {
		return Recommendation{}, errors.Trace(err)
	}
	return recommendation, nil
}

func (r *Redis) DeleteRecommendation(ctx context.Context, userId int32) error {
	return errors.Trace(r.client.Del(ctx, r.recommendKey(userId)).Err())
}
