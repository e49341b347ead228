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
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/cmd/version"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/config"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/logics"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage/cache"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/storage/data"
	"github.com/cenkalti/backoff/v5"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	batchSize  = 10000
	maxRetries = 5
)

var rootCommand = &cobra.Command{
	Use:   "movie-recommender",
	Short: "Hybrid movie recommender based on user and item similarity.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.Flags().BoolP("version", "v", false, "movie-recommender version")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer log.Sync()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to load config")
	}
	return cfg, nil
}

// openDataStore connects to the data store and retries with exponential
// backoff until the store answers a ping.
func openDataStore(ctx context.Context, cfg *config.Config) (data.Database, error) {
	if cfg.Database.DataStore == "" {
		return data.NoDatabase{}, nil
	}
	return backoff.Retry(ctx, func() (data.Database, error) {
		database, err := data.Open(cfg.Database.DataStore, cfg.Database.TablePrefix)
		if err != nil {
			return nil, backoff.Permanent(errors.Trace(err))
		}
		if err = database.Ping(); err != nil {
			_ = database.Close()
			return nil, errors.Trace(err)
		}
		return database, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Logger().Warn("failed to connect data store, retrying",
				zap.String("data_store", log.RedactDBURL(cfg.Database.DataStore)),
				zap.Duration("next", next),
				zap.Error(err))
		}))
}

// openCacheStore connects to the cache store with the same retry policy as
// the data store.
func openCacheStore(ctx context.Context, cfg *config.Config) (cache.Database, error) {
	if cfg.Database.CacheStore == "" {
		return cache.NoDatabase{}, nil
	}
	return backoff.Retry(ctx, func() (cache.Database, error) {
		database, err := cache.Open(cfg.Database.CacheStore, cfg.Database.TablePrefix)
		if err != nil {
			return nil, backoff.Permanent(errors.Trace(err))
		}
		if err = database.Ping(); err != nil {
			_ = database.Close()
			return nil, errors.Trace(err)
		}
		return database, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Logger().Warn("failed to connect cache store, retrying",
				zap.String("cache_store", log.RedactDBURL(cfg.Database.CacheStore)),
				zap.Duration("next", next),
				zap.Error(err))
		}))
}

// loadDataset reads the dataset from a MovieLens directory, a downloaded
// MovieLens archive or the data store, in this order.
func loadDataset(cmd *cobra.Command, cfg *config.Config) (*dataset.Dataset, error) {
	dir, _ := cmd.Flags().GetString("dataset")
	name, _ := cmd.Flags().GetString("download")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if dir == "" && name != "" {
		var err error
		if dir, err = dataset.DownloadMovieLens(name); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if dir != "" {
		return dataset.LoadMovieLens(dir, verbose)
	}
	database, err := openDataStore(cmd.Context(), cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer database.Close()
	return data.LoadDataset(cmd.Context(), database, batchSize)
}

// newRecommender loads the dataset and builds the rating matrix.
func newRecommender(cmd *cobra.Command, cfg *config.Config) (*logics.Recommender, *dataset.Dataset, error) {
	ds, err := loadDataset(cmd, cfg)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	start := time.Now()
	matrix, err := logics.NewRatingMatrixFromDataset(ds, logics.NewMatrixOptions(cfg.Recommend))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	log.Logger().Info("build rating matrix",
		zap.Int("n_users", matrix.CountUsers()),
		zap.Int("n_items", matrix.CountItems()),
		zap.Int("n_ratings", matrix.CountRatings()),
		zap.Int("n_skipped", matrix.SkippedRatings()),
		zap.Duration("used_time", time.Since(start)))
	recommender, err := logics.NewRecommender(cfg.Recommend, matrix, ds)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return recommender, ds, nil
}

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().String("dataset", "", "directory of MovieLens CSV files (movie.csv and rating.csv)")
	cmd.Flags().String("download", "", "download a MovieLens dataset by name (e.g. ml-latest-small)")
	cmd.Flags().Bool("verbose", false, "show progress and intermediate results")
}
