// Copyright (c) 2014 Utkan Güngördü <utkan@freeconsole.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cuckoo

// shadowTable is a plain array of num_buckets*kTagsPerBucket original
// keys, one per logical slot of the primary table. It exists only so a
// bucket-state transition or a ChangeFingerprint repair can recompute a
// fingerprint without having retained the original key anywhere else.
type shadowTable struct {
	keys []uint64 // len == numBuckets*kTagsPerBucket
}

func newShadowTable(numBuckets uint64) *shadowTable {
	return &shadowTable{keys: make([]uint64, numBuckets*kTagsPerBucket)}
}

func (s *shadowTable) read(i uint64, j int) uint64 {
	return s.keys[i*kTagsPerBucket+uint64(j)]
}

func (s *shadowTable) write(i uint64, j int, key uint64) {
	s.keys[i*kTagsPerBucket+uint64(j)] = key
}

func (s *shadowTable) sizeInBytes() int { return len(s.keys) * 8 }
