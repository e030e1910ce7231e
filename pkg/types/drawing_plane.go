package types

// DrawingPlane anchors a 2D sketch (a Polygon/Circle/HalfPlane GeoNode, or a
// network's 2D editing surface) inside 3D space. Origin is the plane's
// world-space zero point; U and V are orthonormal in-plane basis vectors;
// Normal = U x V.
type DrawingPlane struct {
	Origin Vec3
	U, V   Vec3
	Normal Vec3
}

// DrawingPlaneXY is the default sketch plane: the world XY plane at the
// origin, with +Z as the surface normal.
func DrawingPlaneXY() DrawingPlane {
	return DrawingPlane{
		Origin: Vec3{},
		U:      Vec3{X: 1},
		V:      Vec3{Y: 1},
		Normal: Vec3{Z: 1},
	}
}

// NewDrawingPlane builds a DrawingPlane from an origin and a normal,
// deriving an arbitrary but consistent in-plane basis. Used when a plane is
// specified only by its normal (e.g. read from a saved project) and no
// particular in-plane orientation matters.
func NewDrawingPlane(origin, normal Vec3) DrawingPlane {
	n := normal.Normalize()
	// Pick a helper axis not parallel to n to build an orthonormal basis.
	helper := Vec3{X: 1}
	if abs(n.X) > 0.9 {
		helper = Vec3{Y: 1}
	}
	u := n.Cross(helper).Normalize()
	v := n.Cross(u)
	return DrawingPlane{Origin: origin, U: u, V: v, Normal: n}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Project maps a world-space point onto the plane's 2D (U, V) coordinates,
// discarding its out-of-plane component.
func (p DrawingPlane) Project(world Vec3) Vec2 {
	rel := world.Sub(p.Origin)
	return Vec2{X: rel.Dot(p.U), Y: rel.Dot(p.V)}
}

// Unproject maps a 2D (U, V) coordinate back into world space, placing the
// result exactly on the plane.
func (p DrawingPlane) Unproject(planePoint Vec2) Vec3 {
	return p.Origin.Add(p.U.Scale(planePoint.X)).Add(p.V.Scale(planePoint.Y))
}

// SignedDistance returns the signed distance from world to the plane along
// its normal: positive on the side the normal points toward.
func (p DrawingPlane) SignedDistance(world Vec3) float64 {
	return world.Sub(p.Origin).Dot(p.Normal)
}
