package spatial

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateTransform is returned when a transform's matrix cannot be
// inverted. This indicates corrupted transform state, not a recoverable
// tracking condition.
var ErrDegenerateTransform = errors.New("spatial: degenerate transform is not invertible")

// RigidTransform is an immutable position + orientation pair.
//
// The 4x4 matrix is derived once at construction; the inverse is computed
// lazily and memoized, with the inverse's own inverse pointing back to the
// original so the pair shares one allocation each.
type RigidTransform struct {
	position    mgl64.Vec3
	orientation mgl64.Quat
	matrix      mgl64.Mat4
	inverse     *RigidTransform
}

// NewRigidTransform builds a transform from a position and an orientation.
// The orientation is normalized; a zero-length quaternion falls back to the
// identity orientation.
func NewRigidTransform(position mgl64.Vec3, orientation mgl64.Quat) *RigidTransform {
	if orientation.Norm() < 1e-12 {
		orientation = mgl64.QuatIdent()
	} else {
		orientation = orientation.Normalize()
	}

	return &RigidTransform{
		position:    position,
		orientation: orientation,
		matrix:      composeMatrix(position, orientation),
	}
}

// IdentityTransform returns a transform at the origin with no rotation.
func IdentityTransform() *RigidTransform {
	return NewRigidTransform(mgl64.Vec3{}, mgl64.QuatIdent())
}

// TransformFromMatrix decomposes a rigid 4x4 matrix into position and
// orientation. Returns ErrDegenerateTransform if the matrix is singular.
func TransformFromMatrix(m mgl64.Mat4) (*RigidTransform, error) {
	if math.Abs(m.Det()) < 1e-12 {
		return nil, ErrDegenerateTransform
	}

	position := m.Col(3).Vec3()
	orientation := mgl64.Mat4ToQuat(m)

	return NewRigidTransform(position, orientation), nil
}

// Position returns the translation component.
func (t *RigidTransform) Position() mgl64.Vec3 {
	return t.position
}

// Orientation returns the unit rotation quaternion.
func (t *RigidTransform) Orientation() mgl64.Quat {
	return t.orientation
}

// Matrix returns the cached 4x4 matrix equivalent of the transform.
func (t *RigidTransform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// Inverse returns the memoized inverse transform. The first call computes
// it; both transforms then cache each other.
func (t *RigidTransform) Inverse() (*RigidTransform, error) {
	if t.inverse != nil {
		return t.inverse, nil
	}

	if math.Abs(t.matrix.Det()) < 1e-12 {
		return nil, ErrDegenerateTransform
	}

	inv, err := TransformFromMatrix(t.matrix.Inv())
	if err != nil {
		return nil, err
	}

	t.inverse = inv
	inv.inverse = t

	return inv, nil
}

func composeMatrix(position mgl64.Vec3, orientation mgl64.Quat) mgl64.Mat4 {
	return mgl64.Translate3D(position.X(), position.Y(), position.Z()).Mul4(orientation.Mat4())
}
