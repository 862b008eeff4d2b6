// Package staging assigns synthetic depths to layers from their stacking
// order and derives render orderings and perspective suggestions from those
// depths.
//
// A layer at depth d sits at world position (0, 0, -d). Lower stacking
// indices are closer to the viewer, so every function here hands out depth
// in ascending stacking-index order.
package staging

import (
	"cmp"
	"math"
	"slices"

	"github.com/BenjaminBenetti/diorama-bg/transform"
)

// Defaults for the depth distribution helpers.
const (
	DefaultSpacing  = 1.0
	DefaultStart    = 0.0
	DefaultMaxDepth = 20.0
	DefaultCurve    = 1.5
)

// Layer is the subset of a compositor layer the staging helpers need.
type Layer interface {
	StackIndex() int
	Depth() float64
	SetDepth(z float64)
}

// byStackIndex returns a copy of layers sorted by ascending stacking index.
// The sort is stable so equal indices keep their insertion order.
func byStackIndex[L Layer](layers []L) []L {
	sorted := slices.Clone(layers)
	slices.SortStableFunc(sorted, func(a, b L) int {
		return cmp.Compare(a.StackIndex(), b.StackIndex())
	})
	return sorted
}

// AutoSetDepths assigns depth = start + rank*spacing, where rank is the
// layer's position in ascending stacking-index order. The input slice order
// is not modified.
func AutoSetDepths[L Layer](layers []L, spacing, start float64) {
	for i, l := range byStackIndex(layers) {
		l.SetDepth(start + float64(i)*spacing)
	}
}

// StagedDepths spreads layers over [0, maxDepth] with a power curve:
// depth = (rank/(n-1))^curve * maxDepth. Curves above 1 cluster front
// layers near 0. Fewer than two layers are left untouched.
func StagedDepths[L Layer](layers []L, maxDepth, curve float64) {
	n := len(layers)
	if n < 2 {
		return
	}
	for i, l := range byStackIndex(layers) {
		t := float64(i) / float64(n-1)
		l.SetDepth(math.Pow(t, curve) * maxDepth)
	}
}

// SortByDepth returns a new slice in far-to-near paint order: depth
// descending, then stacking index descending so that lower indices are
// painted last.
func SortByDepth[L Layer](layers []L) []L {
	sorted := slices.Clone(layers)
	slices.SortStableFunc(sorted, func(a, b L) int {
		if c := cmp.Compare(b.Depth(), a.Depth()); c != 0 {
			return c
		}
		return cmp.Compare(b.StackIndex(), a.StackIndex())
	})
	return sorted
}

// Anchor returns the world position of a layer at the given depth.
// Only the Z axis participates; X and Y are assumed to be 0.
func Anchor(depth float64) transform.Vec3 {
	return transform.V3(0, 0, -depth)
}

// SortByCameraDistance returns a new slice ordered far-to-near by the
// Euclidean distance from camera to each layer's anchor. Distances are
// measured to Anchor(depth), which is (0, 0, -depth), not (0, 0, depth):
// with the camera on +Z a larger depth is always further away.
func SortByCameraDistance[L Layer](layers []L, camera transform.Vec3) []L {
	sorted := slices.Clone(layers)
	slices.SortStableFunc(sorted, func(a, b L) int {
		return cmp.Compare(camera.Distance(Anchor(b.Depth())), camera.Distance(Anchor(a.Depth())))
	})
	return sorted
}

// Suggestion is an authoring aid produced by SuggestPerspective.
type Suggestion struct {
	// FOV is the suggested vertical field of view in radians.
	FOV float64
	// CameraDistance is the suggested distance of the camera from the origin.
	CameraDistance float64
	MinDepth       float64
	MaxDepth       float64
	AverageDepth   float64
}

// FOVDegrees returns FOV converted to degrees.
func (s Suggestion) FOVDegrees() float64 {
	return transform.ToDegrees(s.FOV)
}

// SuggestPerspective picks a field of view from the depth spread (60 degrees
// above 15 units, 30 below 5, otherwise 45) and a camera distance of
// max(average+5, 5). It is never applied automatically.
func SuggestPerspective[L Layer](layers []L) Suggestion {
	s := Suggestion{FOV: transform.ToRadians(45), CameraDistance: 5}
	if len(layers) == 0 {
		return s
	}

	s.MinDepth = math.Inf(1)
	s.MaxDepth = math.Inf(-1)
	sum := 0.0
	for _, l := range layers {
		d := l.Depth()
		s.MinDepth = math.Min(s.MinDepth, d)
		s.MaxDepth = math.Max(s.MaxDepth, d)
		sum += d
	}
	s.AverageDepth = sum / float64(len(layers))

	switch spread := s.MaxDepth - s.MinDepth; {
	case spread > 15:
		s.FOV = transform.ToRadians(60)
	case spread < 5:
		s.FOV = transform.ToRadians(30)
	}
	s.CameraDistance = math.Max(s.AverageDepth+5, 5)
	return s
}
