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
	"time"
)

// NoDatabase means no database used for cache.
type NoDatabase struct{}

// Ping method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Ping() error {
	return ErrNoDatabase
}

// Close method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Close() error {
	return ErrNoDatabase
}

// SetRecommendation method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) SetRecommendation(_ context.Context, _ Recommendation, _ time.Duration) error {
	return ErrNoDatabase
}

// GetRecommendation method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) GetRecommendation(_ context.Context, _ int32) (Recommendation, error) {
	return Recommendation{}, ErrNoDatabase
}

// DeleteRecommendation method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) DeleteRecommendation(_ context.Context, _ int32) error {
	return ErrNoDatabase
}
