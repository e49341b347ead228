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

package config

import (
	"time"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/expr-lang/expr"
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	MissingItemSkip  = "skip"
	MissingItemError = "error"
)

// Config is the configuration for the recommender.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// DatabaseConfig is the configuration for the data store and the cache store.
type DatabaseConfig struct {
	DataStore   string `mapstructure:"data_store"`
	CacheStore  string `mapstructure:"cache_store"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// RecommendConfig is the configuration of the hybrid pipeline.
type RecommendConfig struct {
	PopularityThreshold  int        `mapstructure:"popularity_threshold" validate:"gte=0"`
	OverlapFraction      float64    `mapstructure:"overlap_fraction" validate:"gt=0,lte=1"`
	MinWatched           int        `mapstructure:"min_watched" validate:"gte=2"`
	CorrelationThreshold float64    `mapstructure:"correlation_threshold" validate:"gte=-1,lte=1"`
	ScoreCutoff          float64    `mapstructure:"score_cutoff" validate:"gte=0"`
	ScaleMax             float64    `mapstructure:"scale_max" validate:"gt=0"`
	NumUserBased         int        `mapstructure:"num_user_based" validate:"gte=0"`
	NumItemBased         int        `mapstructure:"num_item_based" validate:"gte=0"`
	MissingItemPolicy    string     `mapstructure:"missing_item_policy" validate:"oneof=skip error"`
	ItemFilter           string     `mapstructure:"item_filter"`
	Seed                 SeedConfig `mapstructure:"seed"`
}

// SeedConfig decides which rated item seeds the item-based branch.
type SeedConfig struct {
	Rating float64 `mapstructure:"rating" validate:"gte=0"`
}

// WorkerConfig is the configuration of the offline batch worker.
type WorkerConfig struct {
	Jobs        int           `mapstructure:"jobs" validate:"gt=0"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	MetricsPath string        `mapstructure:"metrics_path"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Recommend: RecommendConfig{
			PopularityThreshold:  1000,
			OverlapFraction:      0.65,
			MinWatched:           2,
			CorrelationThreshold: 0.65,
			ScoreCutoff:          4.5,
			ScaleMax:             5,
			NumUserBased:         5,
			NumItemBased:         5,
			MissingItemPolicy:    MissingItemSkip,
			Seed: SeedConfig{
				Rating: 5,
			},
		},
		Worker: WorkerConfig{
			Jobs:     1,
			CacheTTL: 24 * time.Hour,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.cache_store", defaultConfig.Database.CacheStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	// [recommend]
	v.SetDefault("recommend.popularity_threshold", defaultConfig.Recommend.PopularityThreshold)
	v.SetDefault("recommend.overlap_fraction", defaultConfig.Recommend.OverlapFraction)
	v.SetDefault("recommend.min_watched", defaultConfig.Recommend.MinWatched)
	v.SetDefault("recommend.correlation_threshold", defaultConfig.Recommend.CorrelationThreshold)
	v.SetDefault("recommend.score_cutoff", defaultConfig.Recommend.ScoreCutoff)
	v.SetDefault("recommend.scale_max", defaultConfig.Recommend.ScaleMax)
	v.SetDefault("recommend.num_user_based", defaultConfig.Recommend.NumUserBased)
	v.SetDefault("recommend.num_item_based", defaultConfig.Recommend.NumItemBased)
	v.SetDefault("recommend.missing_item_policy", defaultConfig.Recommend.MissingItemPolicy)
	v.SetDefault("recommend.item_filter", defaultConfig.Recommend.ItemFilter)
	// [recommend.seed]
	v.SetDefault("recommend.seed.rating", defaultConfig.Recommend.Seed.Rating)
	// [worker]
	v.SetDefault("worker.jobs", defaultConfig.Worker.Jobs)
	v.SetDefault("worker.cache_ttl", defaultConfig.Worker.CacheTTL)
	v.SetDefault("worker.metrics_path", defaultConfig.Worker.MetricsPath)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from toml file. An empty path loads the
// default configuration. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)

	// bind environment bindings
	bindings := []configBinding{
		{"database.data_store", "MOVIE_REC_DATA_STORE"},
		{"database.cache_store", "MOVIE_REC_CACHE_STORE"},
		{"database.table_prefix", "MOVIE_REC_TABLE_PREFIX"},
		{"worker.jobs", "MOVIE_REC_WORKER_JOBS"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks value ranges and compiles the item filter expression.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Annotate(err, "invalid config")
	}
	if config.Recommend.ItemFilter != "" {
		if _, err := CompileItemFilter(config.Recommend.ItemFilter); err != nil {
			return errors.Annotatef(err, "invalid item filter `%s`", config.Recommend.ItemFilter)
		}
	}
	return nil
}

// CompileItemFilter compiles a boolean expression over `item`.
func CompileItemFilter(filter string) (func(dataset.Item) (bool, error), error) {
	program, err := expr.Compile(filter, expr.Env(map[string]any{
		"item": dataset.Item{},
	}), expr.AsBool())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return func(item dataset.Item) (bool, error) {
		result, err := expr.Run(program, map[string]any{
			"item": item,
		})
		if err != nil {
			return false, errors.Trace(err)
		}
		return result.(bool), nil
	}, nil
}
