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
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMovies = `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
2,"American President, The (1995)",Comedy|Drama|Romance
3,Heat (1995),(no genres listed)
`
	testRatings = `userId,movieId,rating,timestamp
1,1,4.0,964982703
1,2,0.5,2005-04-02 23:53:47
2,3,5,964981247
`
)

func TestReadItems(t *testing.T) {
	items, err := ReadItems(strings.NewReader(testMovies))
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{ItemId: 1, Title: "Toy Story (1995)", Genres: []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
		{ItemId: 2, Title: "American President, The (1995)", Genres: []string{"Comedy", "Drama", "Romance"}},
		{ItemId: 3, Title: "Heat (1995)"},
	}, items)

	_, err = ReadItems(strings.NewReader("x1,Heat\n2,Heat\n3x,Heat\n"))
	assert.Error(t, err)
}

func TestReadRatings(t *testing.T) {
	var ratings []Rating
	err := ReadRatings(strings.NewReader(testRatings), func(r Rating) error {
		ratings = append(ratings, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Rating{
		{UserId: 1, ItemId: 1, Rating: 4, Timestamp: 964982703},
		{UserId: 1, ItemId: 2, Rating: 0.5, Timestamp: time.Date(2005, 4, 2, 23, 53, 47, 0, time.UTC).Unix()},
		{UserId: 2, ItemId: 3, Rating: 5, Timestamp: 964981247},
	}, ratings)

	// no header
	ratings = nil
	err = ReadRatings(strings.NewReader("7,8,3.5\n"), func(r Rating) error {
		ratings = append(ratings, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Rating{{UserId: 7, ItemId: 8, Rating: 3.5}}, ratings)

	// invalid rating
	err = ReadRatings(strings.NewReader("1,1,good,0\n"), func(r Rating) error { return nil })
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1112486027")
	assert.NoError(t, err)
	assert.Equal(t, int64(1112486027), ts)
	ts, err = ParseTimestamp("2005-04-02 23:53:47")
	assert.NoError(t, err)
	assert.Equal(t, int64(1112486027), ts)
	_, err = ParseTimestamp("not a time")
	assert.Error(t, err)
}

func TestLoadMovieLens(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movies.csv"), []byte(testMovies), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rating.csv"), []byte(testRatings), 0644))

	dataset, err := LoadMovieLens(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 3, dataset.CountItems())
	assert.Equal(t, 3, dataset.CountRatings())
	assert.Equal(t, "Heat (1995)", dataset.Title(3))
	assert.Empty(t, dataset.Title(4))
	assert.Len(t, dataset.GetUserRatings(1), 2)

	_, err = LoadMovieLens(t.TempDir(), false)
	assert.Error(t, err)
}

func TestDataset_AddItem(t *testing.T) {
	dataset := NewDataset(time.Now(), 0, 0)
	dataset.AddItem(Item{ItemId: 1, Title: "a"})
	dataset.AddItem(Item{ItemId: 2, Title: "b"})
	dataset.AddItem(Item{ItemId: 1, Title: "c"})
	assert.Equal(t, 2, dataset.CountItems())
	item, ok := dataset.GetItem(1)
	assert.True(t, ok)
	assert.Equal(t, "c", item.Title)
	_, ok = dataset.GetItem(3)
	assert.False(t, ok)
}

func TestUnzip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "ml-test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("ml-test/movies.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testMovies))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	dst := filepath.Join(dir, "out")
	names, err := unzip(zipPath, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dst, "ml-test", "movies.csv")}, names)
	content, err := os.ReadFile(filepath.Join(dst, "ml-test", "movies.csv"))
	require.NoError(t, err)
	assert.Equal(t, testMovies, string(content))
}
