package cuckoo

import "testing"

func TestNextPow2(t *testing.T) {
	cases := map[uint64]uint64{
		0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 8192: 8192, 8193: 16384,
	}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNumBucketsForDefaults(t *testing.T) {
	if got := numBucketsFor(Config{}); got != DefaultNumBuckets {
		t.Errorf("numBucketsFor(Config{}) = %d, want %d", got, DefaultNumBuckets)
	}
}

func TestNumBucketsForExplicitOverride(t *testing.T) {
	if got := numBucketsFor(Config{NumBuckets: 100}); got != 128 {
		t.Errorf("numBucketsFor({NumBuckets:100}) = %d, want 128", got)
	}
}

func TestNumBucketsForMaxNumKeysRespectsLoadFactor(t *testing.T) {
	got := numBucketsFor(Config{MaxNumKeys: 1 << 20})
	if float64(1<<20) > float64(got*kTagsPerBucket)*maxLoadFactor {
		t.Errorf("numBucketsFor undersized the table for MaxNumKeys=2^20: got %d buckets", got)
	}
}

func TestBitsPerTagValid(t *testing.T) {
	for _, b := range []BitsPerTag{Tag8, Tag12, Tag16} {
		if !b.valid() {
			t.Errorf("BitsPerTag(%d).valid() = false, want true", b)
		}
	}
	if BitsPerTag(10).valid() {
		t.Error("BitsPerTag(10).valid() = true, want false")
	}
}

func TestStatusStringAndError(t *testing.T) {
	if Ok.String() != "Ok" || Ok.Error() != "Ok" {
		t.Error("Ok should print as \"Ok\"")
	}
	if NotFound.String() != "NotFound" {
		t.Error("NotFound should print as \"NotFound\"")
	}
}
