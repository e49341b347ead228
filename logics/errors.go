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
	"github.com/juju/errors"
)

var (
	// ErrUnknownUser is returned when the target user has no rating in the matrix.
	ErrUnknownUser = errors.NotFoundf("user")
	// ErrUnknownItem is returned when the seed item is missing from the matrix.
	ErrUnknownItem = errors.NotFoundf("item")
	// ErrMissingItem is returned when a rating references an item absent from
	// the catalog and the missing item policy is "error".
	ErrMissingItem = errors.NotFoundf("catalog item")
	// ErrInsufficientData is returned when there is not enough overlap to
	// compute recommendations.
	ErrInsufficientData = errors.NotValidf("rating data")
)
