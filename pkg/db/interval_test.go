package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eigerco/lexkv/internal/testutils"
)

func TestRangeInterval(t *testing.T) {
	a, b := []byte("a"), []byte("b")
	tests := []struct {
		name     string
		r        Range
		expected Interval
	}{
		{name: "all", r: All(), expected: Interval{}},
		{name: "from_to", r: All().From(a).To(b), expected: Interval{Start: a, End: b, HasEnd: true}},
		{name: "from_through", r: All().From(a).Through(b), expected: Interval{Start: a, End: []byte("b\x00"), HasEnd: true}},
		{name: "after_to", r: All().After(a).To(b), expected: Interval{Start: []byte("a\x00"), End: b, HasEnd: true}},
		{name: "after_through", r: All().After(a).Through(b), expected: Interval{Start: []byte("a\x00"), End: []byte("b\x00"), HasEnd: true}},
		{name: "from_only", r: All().From(a), expected: Interval{Start: a}},
		{name: "through_only", r: All().Through(b), expected: Interval{End: []byte("b\x00"), HasEnd: true}},
		{name: "reset_lower", r: All().After(a).From(nil), expected: Interval{}},
		{name: "reset_upper", r: All().To(b).Through(nil), expected: Interval{}},
		{name: "empty_key_bound", r: All().To([]byte{}), expected: Interval{Start: nil, End: []byte{}, HasEnd: true}},
		{name: "prefix", r: PrefixRange([]byte("ab")), expected: Interval{Start: []byte("ab"), End: []byte("ac"), HasEnd: true}},
		{name: "prefix_of_max", r: PrefixRange([]byte{0xFF}), expected: Interval{Start: []byte{0xFF}}},
		{name: "prefix_carry", r: PrefixRange([]byte{0x05, 0xFF}), expected: Interval{Start: []byte{0x05, 0xFF}, End: []byte{0x06}, HasEnd: true}},
		{name: "prefix_and_bounds", r: All().After([]byte("ab")).To([]byte("z")).Prefix([]byte("ab")), expected: Interval{Start: []byte("ab\x00"), End: []byte("ac"), HasEnd: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.r.Interval()
			assert.Equal(t, tc.expected.HasEnd, got.HasEnd)
			assert.Equal(t, 0, Compare(tc.expected.Start, got.Start), "start %x", got.Start)
			if tc.expected.HasEnd {
				assert.Equal(t, 0, Compare(tc.expected.End, got.End), "end %x", got.End)
			}
		})
	}
}

func TestRangeCopiesKeys(t *testing.T) {
	key := []byte("a")
	i := All().From(key).Interval()
	key[0] = 'z'
	assert.Equal(t, []byte("a"), i.Start)
}

func TestIntervalIntersect(t *testing.T) {
	ab := Interval{Start: []byte("a"), End: []byte("b"), HasEnd: true}
	tests := []struct {
		name     string
		x, y     Interval
		expected Interval
	}{
		{name: "with_everything", x: ab, y: Everything, expected: ab},
		{name: "everything_with", x: Everything, y: ab, expected: ab},
		{name: "both_unbounded", x: Interval{Start: []byte("c")}, y: Interval{Start: []byte("b")}, expected: Interval{Start: []byte("c")}},
		{name: "narrower_end", x: Interval{End: []byte("m"), HasEnd: true}, y: Interval{End: []byte("k"), HasEnd: true}, expected: Interval{End: []byte("k"), HasEnd: true}},
		{name: "disjoint", x: ab, y: Interval{Start: []byte("c")}, expected: Interval{Start: []byte("c"), End: []byte("b"), HasEnd: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.x.Intersect(tc.y)
			assert.Equal(t, tc.expected.HasEnd, got.HasEnd)
			assert.Equal(t, 0, Compare(tc.expected.Start, got.Start))
			assert.Equal(t, 0, Compare(tc.expected.End, got.End))
		})
	}
	assert.True(t, ab.Intersect(Interval{Start: []byte("c")}).Empty())
	assert.False(t, ab.Empty())
	assert.False(t, Everything.Empty())
	assert.True(t, Interval{End: []byte{}, HasEnd: true}.Empty())
}

func TestIntervalBounds(t *testing.T) {
	start, end := Everything.bounds()
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end = Interval{Start: []byte{}, End: []byte("x"), HasEnd: true}.bounds()
	assert.Nil(t, start)
	assert.Equal(t, []byte("x"), end)

	_, end = Interval{HasEnd: true}.bounds()
	assert.NotNil(t, end)
	assert.Empty(t, end)
}

// Resolving an intent and filtering by the interval must agree with
// filtering by the intent's own inclusive and exclusive semantics.
func TestRangeMatchesNaiveFilter(t *testing.T) {
	keys := testutils.RandomKeys(t, 200, 4)
	bounds := testutils.RandomKeys(t, 20, 3)

	type intent struct {
		name   string
		build  func(lo, hi []byte) Range
		member func(k, lo, hi []byte) bool
	}
	intents := []intent{
		{"from_to", func(lo, hi []byte) Range { return All().From(lo).To(hi) },
			func(k, lo, hi []byte) bool { return Compare(k, lo) >= 0 && Compare(k, hi) < 0 }},
		{"from_through", func(lo, hi []byte) Range { return All().From(lo).Through(hi) },
			func(k, lo, hi []byte) bool { return Compare(k, lo) >= 0 && Compare(k, hi) <= 0 }},
		{"after_to", func(lo, hi []byte) Range { return All().After(lo).To(hi) },
			func(k, lo, hi []byte) bool { return Compare(k, lo) > 0 && Compare(k, hi) < 0 }},
		{"after_through", func(lo, hi []byte) Range { return All().After(lo).Through(hi) },
			func(k, lo, hi []byte) bool { return Compare(k, lo) > 0 && Compare(k, hi) <= 0 }},
		{"prefix", func(lo, _ []byte) Range { return PrefixRange(lo) },
			func(k, lo, _ []byte) bool { return HasPrefix(k, lo) }},
	}

	for _, in := range intents {
		t.Run(in.name, func(t *testing.T) {
			for _, lo := range bounds {
				for _, hi := range bounds {
					i := in.build(lo, hi).Interval()
					for _, k := range keys {
						assert.Equal(t, in.member(k, lo, hi), i.Contains(k), "%s %x %x key %x", in.name, lo, hi, k)
					}
				}
			}
		})
	}
}

// Composing two clamps keeps exactly the keys inside both.
func TestIntersectMatchesBothRanges(t *testing.T) {
	keys := testutils.RandomKeys(t, 200, 4)
	bounds := testutils.RandomKeys(t, 8, 3)

	var ranges []Range
	for _, lo := range bounds {
		ranges = append(ranges, All().From(lo), All().After(lo), All().To(lo), All().Through(lo), PrefixRange(lo))
	}
	for _, x := range ranges {
		for _, y := range ranges {
			ix, iy := x.Interval(), y.Interval()
			both := ix.Intersect(iy)
			for _, k := range keys {
				assert.Equal(t, ix.Contains(k) && iy.Contains(k), both.Contains(k), "%s ∩ %s key %x", x, y, k)
			}
		}
	}
}
