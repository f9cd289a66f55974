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

// table is the primary array of buckets with adaptive fingerprint-width
// encoding. Each bucket occupies bitsPerTag/2+1 bytes: a tag area wide
// enough for four short tags (equivalently, two long tags), followed
// by a one-byte state. A long tag and its two short halves occupy the
// exact same bit range, which is what lets every state transition in
// writeTag move at most one tag's worth of bits.
type table struct {
	bitsPerTag int
	numBuckets uint64
	stateOff   int // byte offset of the state byte within a bucket.
	bucketLen  int // total bytes per bucket.
	shortMask  uint32
	longMask   uint32

	buf    []byte
	shadow *shadowTable
	hz     *hasher
}

func newTable(numBuckets uint64, bitsPerTag int, shadow *shadowTable, hz *hasher) *table {
	stateOff := bitsPerTag / 2
	t := &table{
		bitsPerTag: bitsPerTag,
		numBuckets: numBuckets,
		stateOff:   stateOff,
		bucketLen:  stateOff + 1,
		shortMask:  uint32(1)<<uint(bitsPerTag) - 1,
		longMask:   uint32(1)<<uint(2*bitsPerTag) - 1,
		shadow:     shadow,
		hz:         hz,
	}
	t.buf = make([]byte, t.bucketLen*int(numBuckets))
	return t
}

func bumpTag(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

func (t *table) bucketBuf(i uint64) []byte {
	off := int(i) * t.bucketLen
	return t.buf[off : off+t.bucketLen]
}

func (t *table) readState(i uint64) byte { return t.bucketBuf(i)[t.stateOff] }

func (t *table) writeState(i uint64, a byte) { t.bucketBuf(i)[t.stateOff] = a }

func (t *table) readLong(i uint64, pair int) uint32 {
	return uint32(readBits(t.bucketBuf(i), pair*2*t.bitsPerTag, 2*t.bitsPerTag))
}

func (t *table) writeLong(i uint64, pair int, v uint32) {
	writeBits(t.bucketBuf(i), pair*2*t.bitsPerTag, 2*t.bitsPerTag, uint64(v))
}

func (t *table) readShort(i uint64, j int) uint32 {
	pair := j / 2
	off := pair*2*t.bitsPerTag + (j%2)*t.bitsPerTag
	return uint32(readBits(t.bucketBuf(i), off, t.bitsPerTag))
}

func (t *table) writeShort(i uint64, j int, v uint32) {
	pair := j / 2
	off := pair*2*t.bitsPerTag + (j%2)*t.bitsPerTag
	writeBits(t.bucketBuf(i), off, t.bitsPerTag, uint64(v))
}

func (t *table) clearPair(i uint64, pair int) {
	writeBits(t.bucketBuf(i), pair*2*t.bitsPerTag, 2*t.bitsPerTag, 0)
}

func (t *table) clearBucket(i uint64) {
	b := t.bucketBuf(i)
	for k := range b {
		b[k] = 0
	}
}

// rehashTag recomputes the raw (long-width) fingerprint a key would
// receive today, used whenever a state transition needs a fresh
// fingerprint rather than a relabeling of bits already on hand.
func (t *table) rehashTag(key uint64) uint32 {
	_, tag := t.hz.generateIndexTagHash(key, t.bitsPerTag)
	return tag
}

// readTag returns the fingerprint logically stored at slot j, given the
// bucket's current state. j must be in [0,4).
func (t *table) readTag(i uint64, j int) uint32 {
	switch t.readState(i) {
	case 1, 2:
		if j == 1 || j == 3 {
			return 0
		}
		return t.readLong(i, j/2)
	case 3:
		if j == 3 {
			return 0
		}
		if j == 2 {
			return t.readLong(i, 1)
		}
		return t.readShort(i, j)
	case 4:
		return t.readShort(i, j)
	}
	return 0
}

// writeTag deposits rawTag (the full, 2*bitsPerTag-wide fingerprint) at
// logical slot j and advances the bucket's state machine, or — when
// rawTag is zero — performs the corresponding shrink. A nonzero write
// advances 0→1 (j 0 or 2, stored at slot 0), 1→2 (j 2), 2→3 (j 1) and
// 3→4 (j 3); in state 3 a write at slot 0 or 1, and in state 4 a write
// at any slot, overwrites that short in place. Any other (state, j)
// combination is a no-op.
func (t *table) writeTag(i uint64, j int, rawTag uint32) {
	a := t.readState(i)
	tag := rawTag & t.longMask

	if rawTag != 0 {
		tagshort := bumpTag(tag & t.shortMask)
		tagshorthigh := bumpTag((tag >> uint(t.bitsPerTag)) & t.shortMask)

		switch a {
		case 0:
			if j != 0 && j != 2 {
				return
			}
			t.writeLong(i, 0, tag)
			t.writeState(i, 1)
		case 1:
			if j != 2 {
				return
			}
			t.writeLong(i, 1, tag)
			t.writeState(i, 2)
		case 2:
			if j != 1 {
				return
			}
			t.writeShort(i, 1, tagshorthigh)
			if t.readShort(i, 0) == 0 {
				t.writeShort(i, 0, 1)
			}
			t.writeState(i, 3)
		case 3:
			switch j {
			case 3:
				t.writeShort(i, 3, tagshorthigh)
				if t.readShort(i, 2) == 0 {
					t.writeShort(i, 2, 1)
				}
				t.writeState(i, 4)
			case 0:
				t.writeShort(i, 0, tagshort)
			case 1:
				t.writeShort(i, 1, tagshorthigh)
			}
		case 4:
			if j == 0 || j == 2 {
				t.writeShort(i, j, tagshort)
			} else {
				t.writeShort(i, j, tagshorthigh)
			}
		}
		return
	}

	// rawTag == 0: shrink the state. State 1 (j 0) and state 2 (j 0 or
	// 2) remove that one long, moving slot 2's long down when slot 0
	// goes. State 3 with j 0 or 1 keeps only slot 2's long, moved to
	// slot 0, and drops both shorts; state 4 clears the whole bucket for
	// any j. The shadow table is not touched here.
	switch a {
	case 1:
		if j != 0 {
			return
		}
		t.clearPair(i, 0)
		t.writeState(i, 0)
	case 2:
		switch j {
		case 2:
			t.clearPair(i, 1)
			t.writeState(i, 1)
		case 0:
			moved := t.readLong(i, 1)
			t.clearPair(i, 1)
			t.writeLong(i, 0, moved)
			t.writeState(i, 1)
		}
	case 3:
		if j == 0 || j == 1 {
			moved := t.readLong(i, 1)
			t.clearBucket(i)
			t.writeLong(i, 0, moved)
			t.writeState(i, 1)
		}
	case 4:
		t.clearBucket(i)
	}
}

// numTagsInBucket counts occupied logical slots, for diagnostics.
// Size() does not use it; the Filter keeps its own item counter.
func (t *table) numTagsInBucket(i uint64) int {
	n := 0
	for j := 0; j < kTagsPerBucket; j++ {
		if t.readTag(i, j) != 0 {
			n++
		}
	}
	return n
}

// bucketInfo returns each bucket's state byte. It performs no I/O,
// leaving formatting (or aggregation) to the caller.
func (t *table) bucketInfo() []byte {
	info := make([]byte, t.numBuckets)
	for i := range info {
		info[i] = t.readState(uint64(i))
	}
	return info
}

func (t *table) sizeInBytes() int { return len(t.buf) }

func (t *table) sizeInTags() uint64 { return t.numBuckets * kTagsPerBucket }

func (t *table) info() string {
	return fmt.Sprintf(
		"table with tag size: %d bits\n\t\tAssociativity: %d\n\t\tTotal # of rows: %d\n\t\tTotal # slots: %d\n",
		t.bitsPerTag, kTagsPerBucket, t.numBuckets, t.sizeInTags())
}

// bucketMatches reports whether tag appears to occupy bucket i under
// its current state.
func (t *table) bucketMatches(i uint64, tag uint32) bool {
	tagshort := bumpTag(tag & t.shortMask)
	tagshorthigh := bumpTag((tag >> uint(t.bitsPerTag)) & t.shortMask)

	switch t.readState(i) {
	case 1:
		return t.readTag(i, 0) == tag
	case 2:
		return t.readTag(i, 0) == tag || t.readTag(i, 2) == tag
	case 3:
		return t.readTag(i, 0) == tagshort || t.readTag(i, 1) == tagshorthigh || t.readTag(i, 2) == tag
	case 4:
		return t.readTag(i, 0) == tagshort || t.readTag(i, 1) == tagshorthigh ||
			t.readTag(i, 2) == tagshort || t.readTag(i, 3) == tagshorthigh
	}
	return false
}

// findTagInBuckets is the membership test used by Contain: true if tag
// appears to occupy either candidate bucket.
func (t *table) findTagInBuckets(i1, i2 uint64, tag uint32) bool {
	return t.bucketMatches(i1, tag) || t.bucketMatches(i2, tag)
}

// swapHalf re-derives fresh fingerprints for the two members sharing a
// pair's bit range and swaps which physical slot each occupies. Doing
// so changes the bits a colliding short-tag query would see without
// evicting either member: both keys are still present afterward, just
// relabeled.
func (t *table) swapHalf(i uint64, lo, hi int) {
	keyLo := t.shadow.read(i, lo)
	keyHi := t.shadow.read(i, hi)
	t.writeTag(i, hi, t.rehashTag(keyLo))
	t.writeTag(i, lo, t.rehashTag(keyHi))
	t.shadow.write(i, lo, keyHi)
	t.shadow.write(i, hi, keyLo)
}

func (t *table) repairBucket(i uint64, tag uint32) bool {
	a := t.readState(i)
	if a != 3 && a != 4 {
		return false
	}
	tagshort := bumpTag(tag & t.shortMask)
	tagshorthigh := bumpTag((tag >> uint(t.bitsPerTag)) & t.shortMask)

	if t.readTag(i, 0) == tagshort || t.readTag(i, 1) == tagshorthigh {
		t.swapHalf(i, 0, 1)
		return true
	}
	if a == 4 && (t.readTag(i, 2) == tagshort || t.readTag(i, 3) == tagshorthigh) {
		t.swapHalf(i, 2, 3)
		return true
	}
	return false
}

// findWrongTagInBuckets is the ChangeFingerprint repair: it scans both
// candidate buckets for a short-tag alias and, if found, repairs it.
func (t *table) findWrongTagInBuckets(i1, i2 uint64, tag uint32) bool {
	return t.repairBucket(i1, tag) || t.repairBucket(i2, tag)
}

// disambiguateShort resolves which slot among a set of candidates that
// nominally match a queried short/short-high value is the true match,
// by rehashing each candidate's shadow key. Only needed when more than
// one candidate matches on the truncated bits.
func (t *table) disambiguateShort(i uint64, candidates []int, fullTag uint32) int {
	if len(candidates) <= 1 {
		if len(candidates) == 0 {
			return -1
		}
		return candidates[0]
	}
	for _, j := range candidates {
		if t.rehashTag(t.shadow.read(i, j)) == fullTag {
			return j
		}
	}
	return candidates[0]
}

// deleteTagFromBucket removes the logical slot matching tag from bucket
// i, shrinking the state and repacking survivors so every occupied slot
// still carries a fingerprint consistent with its shadow key.
//
// State 2, removing slot 0, is the one case where a survivor's bits
// move without a rehash: slot 2's long is already a valid long tag, so
// it is relocated into slot 0 verbatim. Every other shrink that leaves
// a survivor recomputes that survivor's fingerprint from its shadow
// key, since a short tag alone doesn't carry the bits a promoted long
// needs. State 3, removing slot 2 (the long), zeroes the whole bucket:
// the two members held as shorts in slots 0 and 1 are dropped with it,
// and their shadow entries are cleared.
func (t *table) deleteTagFromBucket(i uint64, tag uint32) bool {
	tagshort := bumpTag(tag & t.shortMask)
	tagshorthigh := bumpTag((tag >> uint(t.bitsPerTag)) & t.shortMask)

	switch t.readState(i) {
	case 0:
		return false

	case 1:
		if t.readTag(i, 0) != tag {
			return false
		}
		t.clearBucket(i)
		t.shadow.write(i, 0, 0)
		return true

	case 2:
		if t.readTag(i, 2) == tag {
			t.clearPair(i, 1)
			t.writeState(i, 1)
			t.shadow.write(i, 2, 0)
			return true
		}
		if t.readTag(i, 0) == tag {
			moved := t.readLong(i, 1)
			t.clearPair(i, 1)
			t.writeLong(i, 0, moved)
			t.writeState(i, 1)
			t.shadow.write(i, 0, t.shadow.read(i, 2))
			t.shadow.write(i, 2, 0)
			return true
		}
		return false

	case 3:
		var candidates []int
		if t.readTag(i, 0) == tagshort {
			candidates = append(candidates, 0)
		}
		if t.readTag(i, 1) == tagshorthigh {
			candidates = append(candidates, 1)
		}
		j := t.disambiguateShort(i, candidates, tag)
		if j == 0 || j == 1 {
			survivorSlot := 1
			if j == 1 {
				survivorSlot = 0
			}
			survivorKey := t.shadow.read(i, survivorSlot)
			t.clearPair(i, 0)
			t.writeLong(i, 0, t.rehashTag(survivorKey))
			t.writeState(i, 2)
			t.shadow.write(i, 0, survivorKey)
			t.shadow.write(i, 1, 0)
			return true
		}
		if t.readTag(i, 2) == tag {
			t.clearBucket(i)
			t.shadow.write(i, 0, 0)
			t.shadow.write(i, 1, 0)
			t.shadow.write(i, 2, 0)
			return true
		}
		return false

	case 4:
		var candidates []int
		if t.readTag(i, 0) == tagshort {
			candidates = append(candidates, 0)
		}
		if t.readTag(i, 1) == tagshorthigh {
			candidates = append(candidates, 1)
		}
		if t.readTag(i, 2) == tagshort {
			candidates = append(candidates, 2)
		}
		if t.readTag(i, 3) == tagshorthigh {
			candidates = append(candidates, 3)
		}
		j := t.disambiguateShort(i, candidates, tag)
		if j == -1 {
			return false
		}
		survivors := make([]uint64, 0, 3)
		for s := 0; s < kTagsPerBucket; s++ {
			if s == j {
				continue
			}
			survivors = append(survivors, t.shadow.read(i, s))
		}
		t.clearBucket(i)
		t.writeTag(i, 0, t.rehashTag(survivors[0]))
		t.shadow.write(i, 0, survivors[0])
		t.writeTag(i, 2, t.rehashTag(survivors[1]))
		t.shadow.write(i, 2, survivors[1])
		t.writeTag(i, 1, t.rehashTag(survivors[2]))
		t.shadow.write(i, 1, survivors[2])
		return true
	}
	return false
}

// insertTagToBucket places tag/key in bucket i's free logical slot, per
// the free-slot rule (state 0→slot0, 1→slot2, 2→slot1, 3→slot3). If the
// bucket is full (state 4) and kickout is set, it evicts a uniformly
// random slot instead, returning the evicted key so the caller can
// continue the cuckoo chain.
func (t *table) insertTagToBucket(i uint64, tag uint32, key uint64, kickout bool, fr *fastrand) (ok, evicted bool, evictedKey uint64) {
	switch t.readState(i) {
	case 0:
		t.writeTag(i, 0, tag)
		t.shadow.write(i, 0, key)
		return true, false, 0
	case 1:
		t.writeTag(i, 2, tag)
		t.shadow.write(i, 2, key)
		return true, false, 0
	case 2:
		t.writeTag(i, 1, tag)
		t.shadow.write(i, 1, key)
		return true, false, 0
	case 3:
		t.writeTag(i, 3, tag)
		t.shadow.write(i, 3, key)
		return true, false, 0
	case 4:
		if !kickout {
			return false, false, 0
		}
		r := fr.slot()
		evictedKey = t.shadow.read(i, r)
		t.writeTag(i, r, tag)
		t.shadow.write(i, r, key)
		return true, true, evictedKey
	}
	return false, false, 0
}
