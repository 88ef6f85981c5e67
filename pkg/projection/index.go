// Package projection converts a raw structured-illumination acquisition into
// a pseudo-wide-field volume by averaging all phase/angle combinations at
// each (frame, z-plane, channel) position.
//
// The input plane sequence is assumed to be in CPZAT interleave order, the
// order produced by API OMX acquisitions: channel varies fastest, then phase,
// then angle, then z-plane, then time-frame.
package projection

// Dims holds the five dimension extents of a raw acquisition
type Dims struct {
	// Channels, ZPlanes and Frames are the logical extents with phase
	// and angle divided out
	Channels int
	ZPlanes  int
	Frames   int

	// Phases and Angles are the structured-illumination pattern extents
	Phases int
	Angles int
}

// GroupSize returns the number of planes in one phase/angle group
func (d Dims) GroupSize() int {
	return d.Phases * d.Angles
}

// PlaneCount returns the total number of planes a volume with these
// dimensions must have. It does not guard against overflow; see Validate.
func (d Dims) PlaneCount() int {
	return d.Channels * d.ZPlanes * d.Frames * d.Phases * d.Angles
}

// Coordinate is a 1-based logical position within a raw acquisition:
// T in [1,Frames], Z in [1,ZPlanes], C in [1,Channels], A in [1,Angles],
// P in [1,Phases]. It is a traversal cursor, not a stored entity.
type Coordinate struct {
	T, Z, C, A, P int
}

// Index returns the 1-based position of the coordinate within the flat
// CPZAT-ordered plane sequence. Positions increase strictly as (t, z, c, a, p)
// increase lexicographically in that priority order.
func (co Coordinate) Index(d Dims) int {
	return (co.T-1)*(d.Channels*d.Phases*d.ZPlanes*d.Angles) +
		(co.A-1)*(d.Channels*d.Phases*d.ZPlanes) +
		(co.Z-1)*(d.Channels*d.Phases) +
		(co.P-1)*d.Channels +
		co.C
}

// GroupEnd reports whether this coordinate is the last member of its
// phase/angle group, i.e. the last phase of the last angle. The product test
// matches the source convention; it is valid only under the t, z, c, a, p
// traversal order where the inner loops always finish at a=Angles, p=Phases.
func (co Coordinate) GroupEnd(d Dims) bool {
	return co.P*co.A == d.Phases*d.Angles
}

// Traversal generates the coordinate sequence of a raw acquisition in
// t, z, c, a, p nesting order (frame outermost, phase innermost). This order
// visits the Phases*Angles planes of one group consecutively, so a consumer
// can accumulate planes until GroupEnd fires and then advance to the next
// (t, z, c) position.
//
// The sequence is finite and restartable via Reset.
type Traversal struct {
	dims Dims
	cur  Coordinate
	done bool
}

// NewTraversal creates a traversal over the given dimensions, positioned
// before the first coordinate
func NewTraversal(dims Dims) *Traversal {
	tr := &Traversal{dims: dims}
	tr.Reset()
	return tr
}

// Reset rewinds the traversal to before the first coordinate
func (tr *Traversal) Reset() {
	tr.cur = Coordinate{T: 1, Z: 1, C: 1, A: 1, P: 0}
	tr.done = tr.dims.Frames < 1 || tr.dims.ZPlanes < 1 || tr.dims.Channels < 1 ||
		tr.dims.Angles < 1 || tr.dims.Phases < 1
}

// Next advances to the next coordinate and returns it. The second return
// value is false once the sequence is exhausted.
func (tr *Traversal) Next() (Coordinate, bool) {
	if tr.done {
		return Coordinate{}, false
	}

	// advance, carrying from the innermost axis outward
	tr.cur.P++
	if tr.cur.P > tr.dims.Phases {
		tr.cur.P = 1
		tr.cur.A++
	}
	if tr.cur.A > tr.dims.Angles {
		tr.cur.A = 1
		tr.cur.C++
	}
	if tr.cur.C > tr.dims.Channels {
		tr.cur.C = 1
		tr.cur.Z++
	}
	if tr.cur.Z > tr.dims.ZPlanes {
		tr.cur.Z = 1
		tr.cur.T++
	}
	if tr.cur.T > tr.dims.Frames {
		tr.done = true
		return Coordinate{}, false
	}

	return tr.cur, true
}
