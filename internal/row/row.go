// Package row implements the permutation arithmetic that change-ringing
// compositions are built from: rows (permutations of bells), course-head
// transpositions, and the cyclic part-head group.
//
// This is the "ringing-algebra primitive" collaborator that spec.md treats
// as externally supplied; here it is a small, self-contained value type
// rather than a full ringing-theory library, modelled the way
// internal/domain/identifier.go models a fixed-width identifier: immutable
// byte-backed values with cheap equality and a canonical string form.
package row

import (
	"errors"
	"fmt"
	"strings"
)

// BellAlphabet maps a bell index (0-based) to its conventional display
// character. Stages beyond len(BellAlphabet) aren't supported.
const BellAlphabet = "1234567890ETABCDFGHJKLMNPQRSUVWXYZ"

// ErrInvalidRow is returned when a string fails to parse as a valid row, or
// a row fails to validate as a permutation.
var ErrInvalidRow = errors.New("invalid row")

// Row is a permutation of bells, stored as the 0-indexed bell occupying each
// place. A Row of stage n contains each of 0..n-1 exactly once.
type Row []uint8

// Parse decodes a row from its conventional character representation, e.g.
// "2143678" for an 8-bell row, or "1" for rounds on one bell.
func Parse(s string) (Row, error) {
	r := make(Row, len(s))
	for i, c := range s {
		idx := strings.IndexRune(BellAlphabet, c)
		if idx < 0 {
			return nil, fmt.Errorf("%w: unknown bell symbol %q", ErrInvalidRow, c)
		}
		r[i] = uint8(idx)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustParse is Parse, panicking on error. Intended for literal rows baked
// into tests or static layouts.
func MustParse(s string) Row {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Rounds returns the identity row of the given stage.
func Rounds(stage int) Row {
	r := make(Row, stage)
	for i := range r {
		r[i] = uint8(i)
	}
	return r
}

// Stage is the number of bells (places) in the row.
func (r Row) Stage() int { return len(r) }

// Validate checks that r contains each bell 0..len(r)-1 exactly once.
func (r Row) Validate() error {
	seen := make([]bool, len(r))
	for _, b := range r {
		if int(b) >= len(r) || seen[b] {
			return fmt.Errorf("%w: %s is not a permutation", ErrInvalidRow, r)
		}
		seen[b] = true
	}
	return nil
}

// IsRounds reports whether r is the identity permutation.
func (r Row) IsRounds() bool {
	for i, b := range r {
		if int(b) != i {
			return false
		}
	}
	return true
}

// Equal reports whether r and other are the same permutation.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders r using the conventional bell alphabet.
func (r Row) String() string {
	var sb strings.Builder
	sb.Grow(len(r))
	for _, b := range r {
		if int(b) < len(BellAlphabet) {
			sb.WriteByte(BellAlphabet[b])
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Transpose computes r transposed by `by`: the row that results from
// ringing the permutation `by` starting from place-assignment r. Formally
// result[i] = r[by[i]]. Both rows must share a stage.
func (r Row) Transpose(by Row) Row {
	if len(r) != len(by) {
		panic("row: Transpose requires equal stages")
	}
	out := make(Row, len(r))
	for i, b := range by {
		out[i] = r[b]
	}
	return out
}

// Inverse returns the permutation inverse of r, i.e. the row i such that
// r.Transpose(i) and i.Transpose(r) are both rounds.
func (r Row) Inverse() Row {
	out := make(Row, len(r))
	for place, bell := range r {
		out[bell] = uint8(place)
	}
	return out
}

// Order returns the smallest positive k such that applying r to itself k
// times (r^k, under repeated Transpose starting from rounds) returns
// rounds. This is the size of the cyclic group generated by r — used to
// derive num_parts from a part-head row (spec.md §3, §6).
//
// Computed via cycle decomposition (order = lcm of cycle lengths) rather
// than by iterating Transpose, since the order of a permutation can exceed
// its stage (Landau's function grows faster than n).
func (r Row) Order() int {
	seen := make([]bool, len(r))
	order := 1
	for start := range r {
		if seen[start] {
			continue
		}
		length := 0
		for i := start; !seen[i]; i = int(r[i]) {
			seen[i] = true
			length++
		}
		order = lcm(order, length)
	}
	return order
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
