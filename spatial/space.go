package spatial

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDisjointSpaces is returned when two spaces do not share a common root
// and therefore have no defined relative pose.
var ErrDisjointSpaces = errors.New("spatial: spaces belong to disjoint graphs")

// Space is one coordinate frame in the frame graph: an optional parent plus
// an offset matrix relative to that parent. A space with no parent is a
// root (global space).
//
// The parent pointer is a non-owning back reference; ownership of a space
// belongs to whichever device or tracked input created it. The graph is
// acyclic by construction: a parent is fixed at creation and never reseated,
// so no cycle can be introduced afterwards.
type Space struct {
	parent *Space
	offset mgl64.Mat4
}

// NewSpace creates a space under parent with an identity offset. A nil
// parent creates a root space.
func NewSpace(parent *Space) *Space {
	return &Space{
		parent: parent,
		offset: mgl64.Ident4(),
	}
}

// NewSpaceAt creates a space under parent, offset by the given transform.
func NewSpaceAt(parent *Space, offset *RigidTransform) *Space {
	return &Space{
		parent: parent,
		offset: offset.Matrix(),
	}
}

// Parent returns the parent space, or nil for a root.
func (s *Space) Parent() *Space {
	return s.parent
}

// OffsetMatrix returns the current offset relative to the parent.
func (s *Space) OffsetMatrix() mgl64.Mat4 {
	return s.offset
}

// SetOffset rewrites the offset from a position and orientation. Tracked
// spaces call this once per frame, before any pose query for that frame.
func (s *Space) SetOffset(position mgl64.Vec3, orientation mgl64.Quat) {
	s.offset = composeMatrix(position, orientation.Normalize())
}

// SetOffsetMatrix rewrites the offset matrix directly.
func (s *Space) SetOffsetMatrix(m mgl64.Mat4) {
	s.offset = m
}

// Root walks the parent chain to the graph's root.
func (s *Space) Root() *Space {
	node := s
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// isAncestorOf reports whether s appears on other's parent chain.
func (s *Space) isAncestorOf(other *Space) bool {
	for node := other.parent; node != nil; node = node.parent {
		if node == s {
			return true
		}
	}
	return false
}

// worldMatrix composes the offset chain from the root down to s.
func (s *Space) worldMatrix() mgl64.Mat4 {
	if s.parent == nil {
		return s.offset
	}
	return s.parent.worldMatrix().Mul4(s.offset)
}

// chainMatrix composes the offsets from ancestor (exclusive) down to s.
func (s *Space) chainMatrix(ancestor *Space) mgl64.Mat4 {
	if s == ancestor {
		return mgl64.Ident4()
	}
	return s.parent.chainMatrix(ancestor).Mul4(s.offset)
}

// ResolvePose returns the pose of target expressed in base's frame.
//
// Either space being nil means "no data this frame" (an untracked joint,
// for example) and yields (nil, nil). Spaces in disjoint graphs yield
// ErrDisjointSpaces; a degenerate base matrix yields
// ErrDegenerateTransform. Callers must only resolve after the frame-start
// phase has rewritten all tracked offsets, or the read is torn.
func ResolvePose(target, base *Space) (*RigidTransform, error) {
	if target == nil || base == nil {
		return nil, nil
	}

	if target == base {
		return IdentityTransform(), nil
	}

	if target.Root() != base.Root() {
		return nil, ErrDisjointSpaces
	}

	// Pure descent from an ancestor needs no inversion.
	if base.isAncestorOf(target) {
		return TransformFromMatrix(target.chainMatrix(base))
	}

	baseWorld := base.worldMatrix()
	if math.Abs(baseWorld.Det()) < 1e-12 {
		return nil, ErrDegenerateTransform
	}

	return TransformFromMatrix(baseWorld.Inv().Mul4(target.worldMatrix()))
}
