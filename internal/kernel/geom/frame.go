package geom

// UVToXYZ maps a point in a wall's local 2D frame back to world space:
// uv→xyz(a; w, v0) = v0 + a.u·unit_u + a.v·unit_v (spec.md §4.1).
func UVToXYZ(a Vec2, origin, unitU, unitV Vec3) Vec3 {
	return origin.Add(unitU.Scale(a.U)).Add(unitV.Scale(a.V))
}

// XYZToUV projects a world-space point onto a wall's local frame.
func XYZToUV(p Vec3, origin, unitU, unitV Vec3) Vec2 {
	d := p.Sub(origin)
	return Vec2{U: d.Dot(unitU), V: d.Dot(unitV)}
}

// EdgeTransform2D rotates (by cosT/sinT) then translates a uv point when
// crossing a shared edge in the forward direction (spec.md §3 edge
// transform). InverseEdgeTransform2D undoes it exactly, satisfying the
// round-trip invariant of spec.md §8.
func EdgeTransform2D(p Vec2, cosT, sinT float64, translate Vec2) Vec2 {
	rotated := Vec2{
		U: p.U*cosT - p.V*sinT,
		V: p.U*sinT + p.V*cosT,
	}
	return rotated.Add(translate)
}

func InverseEdgeTransform2D(p Vec2, cosT, sinT float64, translate Vec2) Vec2 {
	q := p.Sub(translate)
	return Vec2{
		U: q.U*cosT + q.V*sinT,
		V: -q.U*sinT + q.V*cosT,
	}
}
