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
)

// NoDatabase means that no database used.
type NoDatabase struct{}

// Init method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Init() error {
	return ErrNoDatabase
}

// Ping method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Ping() error {
	return ErrNoDatabase
}

// Close method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Close() error {
	return ErrNoDatabase
}

// Purge method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Purge() error {
	return ErrNoDatabase
}

// BatchInsertItems method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) BatchInsertItems(_ context.Context, _ []dataset.Item) error {
	return ErrNoDatabase
}

// BatchInsertRatings method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) BatchInsertRatings(_ context.Context, _ []dataset.Rating) error {
	return ErrNoDatabase
}

// GetItems method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) GetItems(_ context.Context) ([]dataset.Item, error) {
	return nil, ErrNoDatabase
}

// CountRatings method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) CountRatings(_ context.Context) (int, error) {
	return 0, ErrNoDatabase
}

// GetUserRatings method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) GetUserRatings(_ context.Context, _ int32) ([]dataset.Rating, error) {
	return nil, ErrNoDatabase
}

// GetRatingStream method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) GetRatingStream(_ context.Context, _ int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating)
	errChan := make(chan error, 1)
	close(ratingChan)
	errChan <- ErrNoDatabase
	close(errChan)
	return ratingChan, errChan
}
