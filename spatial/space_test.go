package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestResolvePose_SelfIsIdentity(t *testing.T) {
	root := NewSpace(nil)
	child := NewSpace(root)
	child.SetOffset(mgl64.Vec3{3, 1, -2}, mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}))

	for _, node := range []*Space{root, child} {
		pose, err := ResolvePose(node, node)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if !vecApproxEqual(pose.Position(), mgl64.Vec3{}, epsilon) {
			t.Errorf("self pose position = %v, want origin", pose.Position())
		}
		if !quatApproxEqual(pose.Orientation(), mgl64.QuatIdent(), epsilon) {
			t.Errorf("self pose orientation = %v, want identity", pose.Orientation())
		}
	}
}

func TestResolvePose_ChildInRoot(t *testing.T) {
	root := NewSpace(nil)
	child := NewSpace(root)
	child.SetOffset(mgl64.Vec3{0.25, 1.5, -0.4}, mgl64.QuatIdent())

	pose, err := ResolvePose(child, root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !vecApproxEqual(pose.Position(), mgl64.Vec3{0.25, 1.5, -0.4}, epsilon) {
		t.Errorf("pose position = %v", pose.Position())
	}
}

func TestResolvePose_SiblingFrames(t *testing.T) {
	root := NewSpace(nil)

	viewer := NewSpace(root)
	viewer.SetOffset(mgl64.Vec3{0, 1.6, 0}, mgl64.QuatIdent())

	ray := NewSpace(root)
	ray.SetOffset(mgl64.Vec3{0.25, 1.5, -0.4}, mgl64.QuatIdent())

	pose, err := ResolvePose(ray, viewer)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !vecApproxEqual(pose.Position(), mgl64.Vec3{0.25, -0.1, -0.4}, epsilon) {
		t.Errorf("pose position = %v, want {0.25 -0.1 -0.4}", pose.Position())
	}
}

func TestResolvePose_RotatedBase(t *testing.T) {
	root := NewSpace(nil)

	// Base rotated 90 degrees about Y: +X in world becomes -Z in base.
	base := NewSpace(root)
	base.SetOffset(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))

	target := NewSpace(root)
	target.SetOffset(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())

	pose, err := ResolvePose(target, base)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !vecApproxEqual(pose.Position(), mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("pose position = %v, want {0 0 1}", pose.Position())
	}
}

func TestResolvePose_DeepChainAgainstAncestor(t *testing.T) {
	root := NewSpace(nil)
	a := NewSpace(root)
	a.SetOffset(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())
	b := NewSpace(a)
	b.SetOffset(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent())
	c := NewSpace(b)
	c.SetOffset(mgl64.Vec3{0, 0, 3}, mgl64.QuatIdent())

	pose, err := ResolvePose(c, root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !vecApproxEqual(pose.Position(), mgl64.Vec3{1, 2, 3}, epsilon) {
		t.Errorf("pose position = %v, want {1 2 3}", pose.Position())
	}

	// The ancestor fast path and the general path must agree.
	mid, err := ResolvePose(c, a)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !vecApproxEqual(mid.Position(), mgl64.Vec3{0, 2, 3}, epsilon) {
		t.Errorf("pose position = %v, want {0 2 3}", mid.Position())
	}
}

func TestResolvePose_InverseSymmetry(t *testing.T) {
	root := NewSpace(nil)
	a := NewSpace(root)
	a.SetOffset(mgl64.Vec3{0.3, 1.1, -0.7}, mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 0}))
	b := NewSpace(root)
	b.SetOffset(mgl64.Vec3{-0.2, 1.4, 0.6}, mgl64.QuatRotate(-1.1, mgl64.Vec3{0, 1, 1}.Normalize()))

	ab, err := ResolvePose(a, b)
	if err != nil {
		t.Fatalf("resolve a in b failed: %v", err)
	}
	ba, err := ResolvePose(b, a)
	if err != nil {
		t.Fatalf("resolve b in a failed: %v", err)
	}

	product := ab.Matrix().Mul4(ba.Matrix())
	if !matApproxEqual(product, mgl64.Ident4(), 1e-9) {
		t.Errorf("pose(a,b) * pose(b,a) != identity, got %v", product)
	}
}

func TestResolvePose_DisjointGraphs(t *testing.T) {
	a := NewSpace(nil)
	b := NewSpace(nil)
	child := NewSpace(b)

	if _, err := ResolvePose(a, child); err != ErrDisjointSpaces {
		t.Errorf("expected ErrDisjointSpaces, got %v", err)
	}
}

func TestResolvePose_NilSpaceMeansNoData(t *testing.T) {
	root := NewSpace(nil)

	pose, err := ResolvePose(nil, root)
	if pose != nil || err != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", pose, err)
	}

	pose, err = ResolvePose(root, nil)
	if pose != nil || err != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", pose, err)
	}
}

func TestSpace_OffsetRewriteIsVisibleToNextResolve(t *testing.T) {
	root := NewSpace(nil)
	node := NewSpace(root)

	node.SetOffset(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())
	first, err := ResolvePose(node, root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	node.SetOffset(mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent())
	second, err := ResolvePose(node, root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if !vecApproxEqual(first.Position(), mgl64.Vec3{1, 0, 0}, epsilon) ||
		!vecApproxEqual(second.Position(), mgl64.Vec3{2, 0, 0}, epsilon) {
		t.Errorf("offset rewrite not reflected: %v then %v", first.Position(), second.Position())
	}
}
