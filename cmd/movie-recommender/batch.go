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
	"strings"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/base/log"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/worker"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCommand.AddCommand(batchCommand)
	addDatasetFlags(batchCommand)
	batchCommand.Flags().Int32Slice("users", nil, "users to recommend (all users if not set)")
	batchCommand.Flags().Int("jobs", 0, "number of concurrent jobs (overrides worker.jobs)")
}

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Generate recommendations for many users and store them in the cache store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		if cmd.Flags().Changed("jobs") {
			cfg.Worker.Jobs, _ = cmd.Flags().GetInt("jobs")
		}
		recommender, _, err := newRecommender(cmd, cfg)
		if err != nil {
			return errors.Trace(err)
		}
		cacheClient, err := openCacheStore(cmd.Context(), cfg)
		if err != nil {
			return errors.Trace(err)
		}
		defer cacheClient.Close()

		userIds, _ := cmd.Flags().GetInt32Slice("users")
		if len(userIds) == 0 {
			userIds = recommender.Matrix().Users()
		}
		summary, err := worker.NewWorker(cfg, recommender, cacheClient).Recommend(cmd.Context(), userIds)
		if err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("batch finished", zap.String("run_id", summary.RunId))
		fmt.Fprintln(cmd.OutOrStdout(), formatSummary(summary))
		return nil
	},
}

func formatSummary(summary *worker.Summary) string {
	fields := []lo.Tuple2[string, any]{
		lo.T2[string, any]("total", summary.Total),
		lo.T2[string, any]("updated", summary.Updated),
		lo.T2[string, any]("skipped", summary.Skipped),
		lo.T2[string, any]("failed", summary.Failed),
		lo.T2[string, any]("used_time", summary.UsedTime),
	}
	return strings.Join(lo.Map(fields, func(f lo.Tuple2[string, any], _ int) string {
		return fmt.Sprintf("%s=%v", f.A, f.B)
	}), " ")
}
