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

package main

import (
	"fmt"
	"os"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage/data"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCommand.AddCommand(importCommand)
	importCommand.Flags().String("movies", "", "movie CSV file (movieId,title,genres)")
	importCommand.Flags().String("ratings", "", "rating CSV file (userId,movieId,rating,timestamp)")
	importCommand.Flags().Bool("purge", false, "delete existing data before import")
}

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import MovieLens CSV files into the data store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		database, err := openDataStore(cmd.Context(), cfg)
		if err != nil {
			return errors.Trace(err)
		}
		defer database.Close()
		if err = database.Init(); err != nil {
			return errors.Trace(err)
		}
		if purge, _ := cmd.Flags().GetBool("purge"); purge {
			if err = database.Purge(); err != nil {
				return errors.Trace(err)
			}
		}
		if path, _ := cmd.Flags().GetString("movies"); path != "" {
			n, err := importItems(cmd, database, path)
			if err != nil {
				return errors.Annotatef(err, "failed to import movies from %s", path)
			}
			log.Logger().Info("import movies successfully", zap.String("path", path), zap.Int("n_items", n))
		}
		if path, _ := cmd.Flags().GetString("ratings"); path != "" {
			n, err := importRatings(cmd, database, path)
			if err != nil {
				return errors.Annotatef(err, "failed to import ratings from %s", path)
			}
			log.Logger().Info("import ratings successfully", zap.String("path", path), zap.Int("n_ratings", n))
		}
		return nil
	},
}

func importItems(cmd *cobra.Command, database data.Database, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer file.Close()
	items, err := dataset.ReadItems(file)
	if err != nil {
		return 0, errors.Trace(err)
	}
	bar := progressbar.Default(int64(len(items)), "Importing movies")
	for begin := 0; begin < len(items); begin += batchSize {
		end := min(begin+batchSize, len(items))
		if err = database.BatchInsertItems(cmd.Context(), items[begin:end]); err != nil {
			return 0, errors.Trace(err)
		}
		_ = bar.Add(end - begin)
	}
	return len(items), nil
}

func importRatings(cmd *cobra.Command, database data.Database, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return 0, errors.Trace(err)
	}
	reader := progressbar.NewReader(file, progressbar.DefaultBytes(stat.Size(), "Importing ratings"))
	n := 0
	batch := make([]dataset.Rating, 0, batchSize)
	flush := func() error {
		if err := database.BatchInsertRatings(cmd.Context(), batch); err != nil {
			return errors.Trace(err)
		}
		n += len(batch)
		batch = batch[:0]
		return nil
	}
	if err = dataset.ReadRatings(&reader, func(rating dataset.Rating) error {
		batch = append(batch, rating)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	}); err != nil {
		return n, errors.Trace(err)
	}
	if err = flush(); err != nil {
		return n, errors.Trace(err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return n, nil
}
