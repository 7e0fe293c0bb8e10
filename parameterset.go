package flightconfig

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
)

// ErrAbsentValue is wrapped and returned when an absent parameter value is
// passed where a present one is required.
var ErrAbsentValue = errors.New("absent parameter value")

// ErrErrorID is wrapped and returned when an error-marked ConfigID is used
// where a resolvable identifier is required.
var ErrErrorID = errors.New("config id carries the error marker")

// ErrIndexOutOfRange is wrapped and returned by positional lookups with an
// index outside the stored overrides.
var ErrIndexOutOfRange = errors.New("override index out of range")

// ParameterSet correlates flight configurations with the value a parameter
// takes under each of them. The generic parameter E denotes the type of the
// stored values.
//
// A set always contains exactly one default value plus zero or more overrides
// keyed by non-default ConfigIDs. Querying an identifier without an override
// falls back to the default, so lookups never yield an absent value.
//
// The default value is held in its own slot rather than under a reserved key
// of the overrides map, so the DefaultValueID sentinel can never leak into
// listings or positional queries.
//
// A ParameterSet performs no internal locking; it is designed to be owned by a
// single component tree and manipulated by one controller at a time.
type ParameterSet[E Parameter[E]] struct {
	def       E
	overrides map[ConfigID]E

	// deferring suppresses the per-mutation refresh pass inside Batch.
	deferring bool
	dirty     bool
}

// NewParameterSet returns a set holding only the given default value. It
// returns an error wrapping ErrAbsentValue when the default is absent, because
// the default entry must exist for the whole lifetime of the set.
func NewParameterSet[E Parameter[E]](defaultValue E) (*ParameterSet[E], error) {
	if isAbsent(defaultValue) {
		return nil, fmt.Errorf("new parameter set: default value: %w", ErrAbsentValue)
	}
	return &ParameterSet[E]{
		def:       defaultValue,
		overrides: make(map[ConfigID]E),
	}, nil
}

// CopyOf returns a new set whose default and overrides are independent deep
// copies of the corresponding entries of other. Mutating a value through one
// set never affects the other thereafter.
func CopyOf[E Parameter[E]](other *ParameterSet[E]) *ParameterSet[E] {
	s := &ParameterSet[E]{
		def:       other.def.Clone(),
		overrides: make(map[ConfigID]E, len(other.overrides)),
	}
	for id, v := range other.overrides {
		s.overrides[id] = v.Clone()
	}
	return s
}

// Default returns the value used for every configuration without an override.
// It is never absent.
func (s *ParameterSet[E]) Default() E {
	return s.def
}

// SetDefault replaces the default value. It returns an error wrapping
// ErrAbsentValue when the given value is absent, leaving the set unchanged.
//
// Replacing the default with a value equal (see Parameter.Equals) to the
// current one is a no-op, avoiding needless churn in whatever derived state
// observes the set.
func (s *ParameterSet[E]) SetDefault(value E) error {
	if isAbsent(value) {
		return fmt.Errorf("set default: %w", ErrAbsentValue)
	}
	if s.def.Equals(value) {
		return nil
	}
	s.def = value
	return nil
}

// Get returns the value the parameter takes under the given configuration:
// the override stored for id when one exists, the default otherwise. The
// result is never absent.
//
// An error-marked id is rejected with an error wrapping ErrErrorID; unlike a
// missing override, it never silently falls back to the default.
func (s *ParameterSet[E]) Get(id ConfigID) (E, error) {
	if id.IsError() {
		var zero E
		return zero, fmt.Errorf("get %v: %w", id, ErrErrorID)
	}
	if v, ok := s.overrides[id]; ok {
		return v, nil
	}
	return s.def, nil
}

// At returns the override at the given position of the sorted identifier list
// (see SortedIDs). The default entry has no position; indexes outside
// [0, Size()) are rejected with an error wrapping ErrIndexOutOfRange.
func (s *ParameterSet[E]) At(index int) (E, error) {
	if index < 0 || index >= len(s.overrides) {
		var zero E
		return zero, fmt.Errorf("override index %d with %d overrides stored: %w",
			index, len(s.overrides), ErrIndexOutOfRange)
	}
	ids := s.SortedIDs()
	return s.overrides[ids[index]], nil
}

// FindID returns an identifier whose stored value equals the given one by
// value equality, or ok == false when the value is absent or no entry matches.
// The default entry participates and is reported as DefaultValueID.
//
// Entries are visited in unspecified order, so when several identifiers map to
// equal values the one returned is undefined. Do not rely on it.
func (s *ParameterSet[E]) FindID(value E) (id ConfigID, ok bool) {
	if isAbsent(value) {
		return ConfigID{}, false
	}
	for id, v := range s.overrides {
		if v.Equals(value) {
			return id, true
		}
	}
	if s.def.Equals(value) {
		return DefaultValueID, true
	}
	return ConfigID{}, false
}

// Size returns the number of overrides; the always-present default entry is
// not counted.
func (s *ParameterSet[E]) Size() int {
	return len(s.overrides)
}

// SortedIDs returns the identifiers of all overrides in ascending order (see
// ConfigID.Compare). DefaultValueID is never among them. The slice is freshly
// constructed; mutating it does not affect the set.
func (s *ParameterSet[E]) SortedIDs() []ConfigID {
	ids := make([]ConfigID, 0, len(s.overrides))
	for id := range s.overrides {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	return ids
}

// Set stores value as the override for the given configuration, replacing any
// previous override. An absent value removes the override instead, with no
// complaint when none existed.
//
// Either way the mutation is followed by a refresh pass over every stored
// value (see Update), so state derived from any entry of the set recomputes.
//
// Setting under DefaultValueID replaces the default value itself (an absent
// value is ignored there, because the default entry cannot be removed).
// Error-marked identifiers are ignored entirely: a value stored under one
// could never be retrieved.
func (s *ParameterSet[E]) Set(id ConfigID, value E) {
	if id.IsError() {
		return
	}
	if id == DefaultValueID {
		if isAbsent(value) {
			return
		}
		s.def = value
		s.refresh()
		return
	}
	if isAbsent(value) {
		delete(s.overrides, id)
	} else {
		s.overrides[id] = value
	}
	s.refresh()
}

// Reset removes the override for the given configuration, so that it falls
// back to the default value, and runs the same refresh pass as Set. It is a
// no-op for invalid identifiers and for DefaultValueID.
func (s *ParameterSet[E]) Reset(id ConfigID) {
	if !id.Valid() || id == DefaultValueID {
		return
	}
	delete(s.overrides, id)
	s.refresh()
}

// Clear removes every override while keeping the current default, so that
// querying any configuration yields the default value.
func (s *ParameterSet[E]) Clear() {
	s.overrides = make(map[ConfigID]E)
}

// CloneConfiguration reads the effective value of the src configuration
// (override or default), deep-copies it, and installs the copy as the
// override of dst, running the same refresh pass as Set. It returns dst on
// success.
//
// Either identifier carrying the error marker is rejected with an error
// wrapping ErrErrorID, leaving the set unchanged.
func (s *ParameterSet[E]) CloneConfiguration(src, dst ConfigID) (ConfigID, error) {
	if dst.IsError() {
		return ConfigID{}, fmt.Errorf("clone configuration to %v: %w", dst, ErrErrorID)
	}
	value, err := s.Get(src)
	if err != nil {
		return ConfigID{}, fmt.Errorf("clone configuration from: %w", err)
	}
	s.Set(dst, value.Clone())
	return dst, nil
}

// EqualsDefault reports whether the given value equals the current default by
// value equality. An absent value never equals the default.
//
// Contrast with UsesDefaultInstance, which compares by identity: an override
// stored as its own instance reports true here whenever its value matches the
// default, yet false there.
func (s *ParameterSet[E]) EqualsDefault(value E) bool {
	return !isAbsent(value) && s.def.Equals(value)
}

// UsesDefaultInstance reports whether the entry stored under the given
// identifier is the very same instance as the default entry. A configuration
// without an override reports false, even though its effective value is the
// default; DefaultValueID itself reports true.
//
// Identity only exists for reference-kinded parameter types (see
// sameInstance); prefer EqualsDefault unless instance sharing is exactly what
// you need to detect.
func (s *ParameterSet[E]) UsesDefaultInstance(id ConfigID) bool {
	if id == DefaultValueID {
		return true
	}
	v, ok := s.overrides[id]
	if !ok {
		return false
	}
	return sameInstance(v, s.def)
}

// All iterates over every entry of the set, default included: the default is
// yielded first under DefaultValueID, then the overrides in unspecified
// order.
func (s *ParameterSet[E]) All() iter.Seq2[ConfigID, E] {
	return func(yield func(ConfigID, E) bool) {
		if !yield(DefaultValueID, s.def) {
			return
		}
		for id, v := range s.overrides {
			if !yield(id, v) {
				return
			}
		}
	}
}

// Update invokes the self-refresh operation of every stored value, default
// and overrides alike, in unspecified order. The owning component calls it
// when upstream state changes could invalidate derived values; mutations of
// the set itself trigger it implicitly.
func (s *ParameterSet[E]) Update() {
	s.def.Update()
	for _, v := range s.overrides {
		v.Update()
	}
}

// Batch runs fn with the per-mutation refresh pass suspended: mutations
// performed on the set inside fn do not each trigger Update. One refresh pass
// runs after fn returns, and only if some mutation actually asked for one.
// Use it to avoid repeated whole-set refreshes when editing many entries at
// once.
//
// Batch is not reentrant and, like every other method of the set, offers no
// concurrency control.
func (s *ParameterSet[E]) Batch(fn func()) {
	s.deferring = true
	defer func() {
		s.deferring = false
		if s.dirty {
			s.dirty = false
			s.Update()
		}
	}()
	fn()
}

// refresh runs the post-mutation refresh pass, or records that one is owed
// when mutations are batched.
func (s *ParameterSet[E]) refresh() {
	if s.deferring {
		s.dirty = true
		return
	}
	s.Update()
}

// Describe returns a human-readable multi-line dump of the set for debugging:
// the value type, the override count, and each override in sorted identifier
// order with its textual form. Entries sharing the default's instance are
// marked with surrounding asterisks.
func (s *ParameterSet[E]) Describe() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "====== Dumping ParameterSet<%T> (%d overrides)\n", s.def, s.Size())
	for _, id := range s.SortedIDs() {
		v := s.overrides[id]
		key := id.ShortKey()
		if sameInstance(v, s.def) {
			key = "*" + key + "*"
		}
		fmt.Fprintf(&buf, "    [%-12s]: %v\n", key, v)
	}
	return buf.String()
}
