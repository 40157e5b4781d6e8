package db

import "fmt"

// Interval is a canonical half-open key range [Start, End). A nil or empty
// Start is the beginning of the keyspace. End only applies when HasEnd is
// set; otherwise the interval runs to the end of the keyspace.
type Interval struct {
	Start  []byte
	End    []byte
	HasEnd bool
}

// Everything is the interval covering the whole keyspace.
var Everything = Interval{}

// Contains reports whether key falls inside the interval.
func (i Interval) Contains(key []byte) bool {
	if Compare(key, i.Start) < 0 {
		return false
	}
	return !i.HasEnd || Compare(key, i.End) < 0
}

// Empty reports whether no key can fall inside the interval.
func (i Interval) Empty() bool {
	return i.HasEnd && Compare(i.Start, i.End) >= 0
}

// Intersect narrows i by other: the greater of the two starts and the lesser
// of the two ends. The result is unbounded above only when both are.
func (i Interval) Intersect(other Interval) Interval {
	out := Interval{Start: i.Start, End: i.End, HasEnd: i.HasEnd}
	if Compare(other.Start, out.Start) > 0 {
		out.Start = other.Start
	}
	switch {
	case !other.HasEnd:
	case !out.HasEnd || Compare(other.End, out.End) < 0:
		out.End = other.End
		out.HasEnd = true
	}
	return out
}

// bounds returns the interval as engine arguments, with nil meaning
// unbounded on either side.
func (i Interval) bounds() (start, end []byte) {
	if len(i.Start) > 0 {
		start = i.Start
	}
	if i.HasEnd {
		end = i.End
		if end == nil {
			end = []byte{}
		}
	}
	return start, end
}

func (i Interval) String() string {
	if !i.HasEnd {
		return fmt.Sprintf("[%x, ∞)", i.Start)
	}
	return fmt.Sprintf("[%x, %x)", i.Start, i.End)
}

type lowerKind uint8

const (
	lowerNone lowerKind = iota
	lowerFrom
	lowerAfter
)

type upperKind uint8

const (
	upperNone upperKind = iota
	upperTo
	upperThrough
)

// Range describes a key range the way callers think about it: an inclusive
// (From) or exclusive (After) lower side, an exclusive (To) or inclusive
// (Through) upper side, and optionally a key prefix. Either side may be left
// open; a nil key passed to a bound method opens that side again, so pass a
// non-nil empty slice to bound at the empty key. The zero Range covers the
// whole keyspace.
//
//	db.All().From(a).To(b)        // [a, b)
//	db.All().From(a).Through(b)   // [a, b]
//	db.All().After(a).To(b)       // (a, b)
//	db.All().After(a).Through(b)  // (a, b]
//	db.PrefixRange(p)             // every key starting with p
type Range struct {
	lower     lowerKind
	lowerKey  []byte
	upper     upperKind
	upperKey  []byte
	prefix    []byte
	hasPrefix bool
}

// All returns the unbounded range.
func All() Range {
	return Range{}
}

// PrefixRange returns the range of keys starting with p.
func PrefixRange(p []byte) Range {
	return Range{}.Prefix(p)
}

// From sets an inclusive lower bound, replacing any previous lower bound.
func (r Range) From(key []byte) Range {
	if key == nil {
		r.lower, r.lowerKey = lowerNone, nil
		return r
	}
	r.lower, r.lowerKey = lowerFrom, key
	return r
}

// After sets an exclusive lower bound, replacing any previous lower bound.
func (r Range) After(key []byte) Range {
	if key == nil {
		r.lower, r.lowerKey = lowerNone, nil
		return r
	}
	r.lower, r.lowerKey = lowerAfter, key
	return r
}

// To sets an exclusive upper bound, replacing any previous upper bound.
func (r Range) To(key []byte) Range {
	if key == nil {
		r.upper, r.upperKey = upperNone, nil
		return r
	}
	r.upper, r.upperKey = upperTo, key
	return r
}

// Through sets an inclusive upper bound, replacing any previous upper bound.
func (r Range) Through(key []byte) Range {
	if key == nil {
		r.upper, r.upperKey = upperNone, nil
		return r
	}
	r.upper, r.upperKey = upperThrough, key
	return r
}

// Prefix restricts the range to keys starting with p.
func (r Range) Prefix(p []byte) Range {
	r.prefix, r.hasPrefix = p, true
	return r
}

// Interval resolves the range into its canonical half-open form.
func (r Range) Interval() Interval {
	var out Interval
	switch r.lower {
	case lowerFrom:
		out.Start = clone(r.lowerKey)
	case lowerAfter:
		out.Start = FirstChild(r.lowerKey)
	}
	switch r.upper {
	case upperTo:
		out.End, out.HasEnd = clone(r.upperKey), true
	case upperThrough:
		out.End, out.HasEnd = FirstChild(r.upperKey), true
	}
	if r.hasPrefix {
		p := Interval{Start: clone(r.prefix)}
		p.End, p.HasEnd = PrefixEnd(r.prefix)
		out = out.Intersect(p)
	}
	return out
}

func (r Range) String() string {
	return r.Interval().String()
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
