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
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const (
	genreSep = "|"
	noGenres = "(no genres listed)"
)

// File names of the Kaggle MovieLens 20M dump and of the GroupLens archives.
var (
	movieFiles  = []string{"movie.csv", "movies.csv"}
	ratingFiles = []string{"rating.csv", "ratings.csv"}
)

// ReadItems parses a catalog in the MovieLens layout: movieId,title,genres.
func ReadItems(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var items []Item
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Annotatef(err, "failed to read movie at line %d", lineNumber)
		}
		if lineNumber == 1 && isHeader(record) {
			continue
		}
		if len(record) < 2 {
			return nil, errors.NotValidf("movie at line %d", lineNumber)
		}
		itemId, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "invalid movie id `%v` at line %d", record[0], lineNumber)
		}
		item := Item{ItemId: int32(itemId), Title: record[1]}
		if len(record) > 2 && record[2] != "" && record[2] != noGenres {
			item.Genres = strings.Split(record[2], genreSep)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadRatings parses a rating log in the MovieLens layout: userId,movieId,rating,timestamp.
// The handler is called for every rating in file order.
func ReadRatings(r io.Reader, handler func(Rating) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Annotatef(err, "failed to read rating at line %d", lineNumber)
		}
		if lineNumber == 1 && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			return errors.NotValidf("rating at line %d", lineNumber)
		}
		userId, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 32)
		if err != nil {
			return errors.Annotatef(err, "invalid user id `%v` at line %d", record[0], lineNumber)
		}
		itemId, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 32)
		if err != nil {
			return errors.Annotatef(err, "invalid movie id `%v` at line %d", record[1], lineNumber)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return errors.Annotatef(err, "invalid rating `%v` at line %d", record[2], lineNumber)
		}
		rating := Rating{UserId: int32(userId), ItemId: int32(itemId), Rating: value}
		if len(record) > 3 && record[3] != "" {
			if rating.Timestamp, err = ParseTimestamp(record[3]); err != nil {
				return errors.Annotatef(err, "invalid timestamp `%v` at line %d", record[3], lineNumber)
			}
		}
		if err = handler(rating); err != nil {
			return errors.Trace(err)
		}
	}
}

// ParseTimestamp accepts Unix seconds or any date layout known by dateparse.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return t.Unix(), nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	return err != nil
}

// LocateMovieLens returns the catalog and rating files inside a MovieLens directory.
func LocateMovieLens(dir string) (moviePath, ratingPath string, err error) {
	find := func(names []string) (string, error) {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		return "", errors.NotFoundf("%s in %s", strings.Join(names, " or "), dir)
	}
	if moviePath, err = find(movieFiles); err != nil {
		return "", "", err
	}
	if ratingPath, err = find(ratingFiles); err != nil {
		return "", "", err
	}
	return
}

// LoadMovieLens loads the catalog and the rating log of a MovieLens directory.
func LoadMovieLens(dir string, verbose bool) (*Dataset, error) {
	moviePath, ratingPath, err := LocateMovieLens(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	// load movies
	movieFile, err := os.Open(moviePath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer movieFile.Close()
	items, err := ReadItems(movieFile)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// load ratings
	ratingFile, err := os.Open(ratingPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer ratingFile.Close()
	var reader io.Reader = ratingFile
	if verbose {
		if stat, err := ratingFile.Stat(); err == nil {
			pbReader := progressbar.NewReader(ratingFile, progressbar.DefaultBytes(stat.Size(), "Loading ratings"))
			reader = &pbReader
		}
	}
	dataset := NewDataset(time.Now(), len(items), 0)
	for _, item := range items {
		dataset.AddItem(item)
	}
	if err = ReadRatings(reader, func(rating Rating) error {
		dataset.AddRating(rating)
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load movielens dataset",
		zap.String("dir", dir),
		zap.Int("n_items", dataset.CountItems()),
		zap.Int("n_ratings", dataset.CountRatings()),
		zap.Duration("load_time", time.Since(start)))
	return dataset, nil
}
