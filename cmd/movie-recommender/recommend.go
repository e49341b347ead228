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
	"io"
	"strconv"

	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/dataset"
	"github.com/bugraaltun/Hybrid-Movie-Recommender-System/logics"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCommand.AddCommand(recommendCommand)
	rootCommand.AddCommand(similarCommand)
	addDatasetFlags(recommendCommand)
	addDatasetFlags(similarCommand)
	recommendCommand.Flags().Int32("user", 0, "target user (a random user if not set)")
	recommendCommand.Flags().Int32("seed", 0, "seed item of item-based recommendation (selected from ratings if not set)")
	similarCommand.Flags().Int32("item", 0, "seed item")
	_ = similarCommand.MarkFlagRequired("item")
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend movies to a user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		recommender, ds, err := newRecommender(cmd, cfg)
		if err != nil {
			return errors.Trace(err)
		}
		userId, _ := cmd.Flags().GetInt32("user")
		if !cmd.Flags().Changed("user") {
			userId = lo.Sample(recommender.Matrix().Users())
		}
		var recommendation *logics.Recommendation
		if cmd.Flags().Changed("seed") {
			seedId, _ := cmd.Flags().GetInt32("seed")
			recommendation, err = recommender.RecommendWithSeed(cmd.Context(), userId, seedId)
		} else {
			recommendation, err = recommender.Recommend(cmd.Context(), userId)
		}
		if err != nil {
			return errors.Annotatef(err, "failed to recommend for user %d", userId)
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		return printRecommendation(cmd.OutOrStdout(), recommendation, ds, verbose)
	},
}

var similarCommand = &cobra.Command{
	Use:   "similar",
	Short: "Find movies similar to a movie.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		recommender, _, err := newRecommender(cmd, cfg)
		if err != nil {
			return errors.Trace(err)
		}
		itemId, _ := cmd.Flags().GetInt32("item")
		items, err := recommender.SimilarItems(cmd.Context(), itemId)
		if err != nil {
			return errors.Annotatef(err, "failed to find similar items of item %d", itemId)
		}
		return printItems(cmd.OutOrStdout(), items)
	},
}

func printItems(w io.Writer, items logics.HybridList) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "item_id", "title", "score", "source"})
	for i, item := range items {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(int(item.ItemId)),
			item.Title,
			strconv.FormatFloat(item.Score, 'f', 4, 64),
			string(item.Source),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func printRecommendation(w io.Writer, recommendation *logics.Recommendation, catalog *dataset.Dataset, verbose bool) error {
	if verbose {
		fmt.Fprintf(w, "user %d watched %d movies, cohort has %d users\n",
			recommendation.UserId, len(recommendation.Watched), len(recommendation.Cohort))
		table := tablewriter.NewWriter(w)
		table.Header([]string{"user_id", "correlation"})
		for _, user := range recommendation.TopUsers {
			if err := table.Append([]string{
				strconv.Itoa(int(user.Id)),
				strconv.FormatFloat(user.Correlation, 'f', 4, 64),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
		table = tablewriter.NewWriter(w)
		table.Header([]string{"item_id", "title", "score"})
		for _, score := range recommendation.Scores {
			if err := table.Append([]string{
				strconv.Itoa(int(score.ItemId)),
				catalog.Title(score.ItemId),
				strconv.FormatFloat(score.Score, 'f', 4, 64),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintf(w, "seed movie: %s\n", catalog.Title(recommendation.SeedId))
	}
	return printItems(w, recommendation.Items)
}
