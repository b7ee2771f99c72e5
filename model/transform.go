package model

// Transform is a rigid motion applied to a point p as Rotation·p + Translation.
type Transform struct {
	Rotation    [3][3]float64
	Translation Point3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: [3][3]float64{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	}
}

// Apply transforms a single point.
func (t Transform) Apply(p Point3) Point3 {
	r := &t.Rotation
	return Point3{
		X: r[0][0]*p.X + r[0][1]*p.Y + r[0][2]*p.Z + t.Translation.X,
		Y: r[1][0]*p.X + r[1][1]*p.Y + r[1][2]*p.Z + t.Translation.Y,
		Z: r[2][0]*p.X + r[2][1]*p.Y + r[2][2]*p.Z + t.Translation.Z,
	}
}

// ApplyTo writes the transformed src points into dst and returns dst[:len(src)].
// dst is grown if needed; src is never modified unless it aliases dst.
func (t Transform) ApplyTo(dst, src []Point3) []Point3 {
	if cap(dst) < len(src) {
		dst = make([]Point3, len(src))
	}
	dst = dst[:len(src)]
	for i, p := range src {
		dst[i] = t.Apply(p)
	}
	return dst
}

// ApplyStructure returns a copy of s with every representative point transformed.
func (t Transform) ApplyStructure(s Structure) Structure {
	out := make(Structure, len(s))
	for i, r := range s {
		pts := make([]Point3, len(r.Points))
		for j, p := range r.Points {
			pts[j] = t.Apply(p)
		}
		out[i] = Residue{Points: pts, Code: r.Code, Key: r.Key}
	}
	return out
}

// Det returns the determinant of the rotation matrix.
func (t Transform) Det() float64 {
	r := &t.Rotation
	return r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
}
