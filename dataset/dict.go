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

// FreqDict maps keys to dense indices and counts how often each key is seen.
type FreqDict[K comparable] struct {
	si  map[K]int32
	is  []K
	cnt []int
}

func NewFreqDict[K comparable]() *FreqDict[K] {
	return &FreqDict[K]{si: map[K]int32{}}
}

func (d *FreqDict[K]) Count() int32 {
	return int32(len(d.is))
}

// Id returns the index of k and increases its frequency.
func (d *FreqDict[K]) Id(k K) (y int32) {
	if y, ok := d.si[k]; ok {
		d.cnt[y]++
		return y
	}

	y = int32(len(d.is))
	d.si[k] = y
	d.is = append(d.is, k)
	d.cnt = append(d.cnt, 1)
	return
}

// NotCount returns the index of k without touching its frequency.
func (d *FreqDict[K]) NotCount(k K) (y int32) {
	if y, ok := d.si[k]; ok {
		return y
	}

	y = int32(len(d.is))
	d.si[k] = y
	d.is = append(d.is, k)
	d.cnt = append(d.cnt, 0)
	return
}

// Lookup returns the index of k if it has been seen.
func (d *FreqDict[K]) Lookup(k K) (int32, bool) {
	y, ok := d.si[k]
	return y, ok
}

func (d *FreqDict[K]) Key(id int32) (k K, ok bool) {
	if id < 0 || int(id) >= len(d.is) {
		return k, false
	}
	return d.is[id], true
}

func (d *FreqDict[K]) Freq(id int32) int {
	if id < 0 || int(id) >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}
