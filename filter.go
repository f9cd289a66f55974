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

import "fmt"

// victim holds the single item the eviction loop could not place after
// kMaxCuckooCount steps. Unlike the reference implementation, it keeps
// the member's original key, not just its index/tag: without it,
// reinserting the victim after a Delete frees up room has no key to
// derive a shadow entry from.
type victim struct {
	index uint64
	tag   uint32
	key   uint64
	used  bool
}

// Filter is a cuckoo filter with adaptive fingerprint-length buckets.
// Like the built-in map, Filter is not safe for concurrent use.
type Filter struct {
	table    *table
	shadow   *shadowTable
	hz       *hasher
	fr       *fastrand
	victim   victim
	numItems uint64
}

// New builds an empty Filter sized per cfg.
func New(cfg Config) *Filter {
	bpt := cfg.BitsPerTag
	if bpt == 0 {
		bpt = Tag12
	}
	if !bpt.valid() {
		panic(fmt.Sprintf("cuckoo: unsupported BitsPerTag %d", bpt))
	}

	numBuckets := numBucketsFor(cfg)
	shadow := newShadowTable(numBuckets)
	hz := newHasher(numBuckets)

	return &Filter{
		table:  newTable(numBuckets, int(bpt), shadow, hz),
		shadow: shadow,
		hz:     hz,
		fr:     newFastrand(),
	}
}

// Add inserts key. It fails with NotEnoughSpace only when the victim
// slot is already occupied from a previous call; otherwise it always
// succeeds, possibly by filling the victim slot itself.
func (f *Filter) Add(key uint64) Status {
	if f.victim.used {
		return NotEnoughSpace
	}
	i, tag := f.hz.generateIndexTagHash(key, f.table.bitsPerTag)
	return f.addImpl(i, tag, key)
}

// addImpl runs the cuckoo eviction loop starting from (curIndex,
// curTag, curKey). It always returns Ok: running out of eviction
// budget parks the last displaced item in the victim slot rather than
// failing the call.
func (f *Filter) addImpl(curIndex uint64, curTag uint32, curKey uint64) Status {
	kickout := false
	for n := 0; n < kMaxCuckooCount; n++ {
		ok, evicted, evictedKey := f.table.insertTagToBucket(curIndex, curTag, curKey, kickout, f.fr)
		if ok {
			if !evicted {
				f.numItems++
				return Ok
			}
			curKey = evictedKey
			// Only the tag is kept from this rehash. curIndex still holds
			// the bucket curKey was just evicted from, and AltIndex below
			// must alternate it to curKey's other legal home — reusing
			// the freshly derived index here would send the chain right
			// back to the bucket it came from.
			_, curTag = f.hz.generateIndexTagHash(curKey, f.table.bitsPerTag)
		}
		kickout = true
		curIndex = f.hz.AltIndex(curIndex, curTag)
	}

	f.victim = victim{index: curIndex, tag: curTag, key: curKey, used: true}
	return Ok
}

// Contain reports whether key appears to be a member. False positives
// are possible. A key that was added is reported until it is deleted,
// with one exception: deleting the member held as the long tag of a
// state-3 bucket zeroes that bucket, so the two members stored there as
// shorts are no longer reported (and Size still counts them).
func (f *Filter) Contain(key uint64) Status {
	i1, tag := f.hz.generateIndexTagHash(key, f.table.bitsPerTag)
	i2 := f.hz.AltIndex(i1, tag)

	if f.victim.used && f.victim.tag == tag && (f.victim.index == i1 || f.victim.index == i2) {
		return Ok
	}
	if f.table.findTagInBuckets(i1, i2, tag) {
		return Ok
	}
	return NotFound
}

// ChangeFingerprint repairs a false positive observed for key: if
// either candidate bucket holds a short-tag alias of key's fingerprint,
// it rehashes the two members sharing that half-pair and swaps their
// slots, eliminating the alias without evicting either member.
func (f *Filter) ChangeFingerprint(key uint64) Status {
	i1, tag := f.hz.generateIndexTagHash(key, f.table.bitsPerTag)
	i2 := f.hz.AltIndex(i1, tag)

	if f.table.findWrongTagInBuckets(i1, i2, tag) {
		return Ok
	}
	return NotFound
}

// Delete removes key if present, in either candidate bucket or the
// victim slot. A successful table deletion that leaves the victim
// occupied attempts to reinsert the victim, since deleting freed a
// slot it may now fit in.
func (f *Filter) Delete(key uint64) Status {
	i1, tag := f.hz.generateIndexTagHash(key, f.table.bitsPerTag)
	i2 := f.hz.AltIndex(i1, tag)

	if f.table.deleteTagFromBucket(i1, tag) {
		f.numItems--
		f.tryReinsertVictim()
		return Ok
	}
	if f.table.deleteTagFromBucket(i2, tag) {
		f.numItems--
		f.tryReinsertVictim()
		return Ok
	}
	if f.victim.used && f.victim.tag == tag && (f.victim.index == i1 || f.victim.index == i2) {
		f.victim = victim{}
		return Ok
	}
	return NotFound
}

func (f *Filter) tryReinsertVictim() {
	if !f.victim.used {
		return
	}
	v := f.victim
	f.victim = victim{}
	f.addImpl(v.index, v.tag, v.key)
}

// Size returns the number of items currently stored, excluding a
// possibly-occupied victim slot.
func (f *Filter) Size() uint64 { return f.numItems }

// SizeInBytes returns the combined footprint of the primary and shadow
// tables.
func (f *Filter) SizeInBytes() int {
	return f.table.sizeInBytes() + f.shadow.sizeInBytes()
}

// Info describes the filter's configuration and current occupancy.
func (f *Filter) Info() string {
	return fmt.Sprintf("CuckooFilter Status:\n\t\t%d Items\n\t\t%s", f.numItems, f.table.info())
}
