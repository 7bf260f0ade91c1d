package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bitmap is a dense set of small non-negative ints,
	// such as block positions in a function's block order.
	Bitmap struct {
		b  []uint64
		b0 [1]uint64
	}
)

func MakeBitmap(size int) Bitmap {
	s := Bitmap{}
	s.b = s.b0[:]

	if n := (size + 63) / 64; n > len(s.b) {
		s.b = make([]uint64, n)
	}

	return s
}

func (s *Bitmap) Set(i int) {
	w, bit := i/64, i%64

	for w >= len(s.b) {
		s.b = append(s.b, 0)
	}

	s.b[w] |= 1 << bit
}

func (s *Bitmap) IsSet(i int) bool {
	w, bit := i/64, i%64

	return w < len(s.b) && s.b[w]&(1<<bit) != 0
}

// Size is the number of elements in the set.
func (s *Bitmap) Size() (r int) {
	for _, w := range s.b {
		r += bits.OnesCount64(w)
	}

	return r
}

// Range calls f for each element in ascending order until f returns false.
func (s *Bitmap) Range(f func(i int) bool) {
	for w, x := range s.b {
		for x != 0 {
			bit := bits.TrailingZeros64(x)
			x &^= 1 << bit

			if !f(w*64 + bit) {
				return
			}
		}
	}
}

func (s Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)

		return true
	})

	return e.AppendBreak(b)
}
