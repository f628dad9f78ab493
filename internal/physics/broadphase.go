package physics

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// pivotSamples bounds the median estimate used when splitting a tree level.
const pivotSamples = 32

// body is a particle centre tagged with its index in the state.
type body struct {
	idx int
	p   r2.Vec
}

func (b body) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(body)
	if d == 0 {
		return b.p.X - q.p.X
	}
	return b.p.Y - q.p.Y
}

func (b body) Dims() int { return 2 }

func (b body) Distance(c kdtree.Comparable) float64 {
	d := r2.Sub(b.p, c.(body).p)
	return r2.Dot(d, d)
}

type bodies []body

func (s bodies) Index(i int) kdtree.Comparable         { return s[i] }
func (s bodies) Len() int                              { return len(s) }
func (s bodies) Pivot(d kdtree.Dim) int                { return bodyPlane{bodies: s, Dim: d}.Pivot() }
func (s bodies) Slice(start, end int) kdtree.Interface { return s[start:end] }

type bodyPlane struct {
	kdtree.Dim
	bodies
}

func (p bodyPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.bodies[i].p.X < p.bodies[j].p.X
	}
	return p.bodies[i].p.Y < p.bodies[j].p.Y
}
func (p bodyPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfRandoms(p, pivotSamples))
}
func (p bodyPlane) Slice(start, end int) kdtree.SortSlicer {
	p.bodies = p.bodies[start:end]
	return p
}
func (p bodyPlane) Swap(i, j int) { p.bodies[i], p.bodies[j] = p.bodies[j], p.bodies[i] }

// neighbours is a k-d tree over particle centres rebuilt on every force
// evaluation. Any overlapping pair lies within the largest diameter.
type neighbours struct {
	tree  *kdtree.Tree
	reach float64
}

func newNeighbours(positions []r2.Vec, reach float64) *neighbours {
	pts := make(bodies, len(positions))
	for i, p := range positions {
		pts[i] = body{idx: i, p: p}
	}
	return &neighbours{tree: kdtree.New(pts, false), reach: reach}
}

// candidates returns the indices j > i whose centres lie within reach of p,
// ascending.
func (n *neighbours) candidates(i int, p r2.Vec) []int {
	keep := kdtree.NewDistKeeper(n.reach * n.reach)
	n.tree.NearestSet(keep, body{idx: i, p: p})

	var out []int
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		if j := c.Comparable.(body).idx; j > i {
			out = append(out, j)
		}
	}
	sort.Ints(out)
	return out
}
