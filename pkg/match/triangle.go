package match

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateArea2 is the squared-area floor below which a triangle is
// treated as a segment or point during projection.
const degenerateArea2 = 1e-24

// closestPointOnTriangle returns the point of triangle abc nearest to p
// together with its clamped barycentric coordinates. Degenerate
// triangles fall back to the nearest point on the triangle's edges, so
// the result is always finite.
func closestPointOnTriangle(p, a, b, c r3.Vec) (r3.Vec, [3]float64) {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a, [3]float64{1, 0, 0}
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, [3]float64{0, 1, 0}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := safeDiv(d1, d1-d3)
		return r3.Add(a, r3.Scale(v, ab)), [3]float64{1 - v, v, 0}
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, [3]float64{0, 0, 1}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := safeDiv(d2, d2-d6)
		return r3.Add(a, r3.Scale(w, ac)), [3]float64{1 - w, 0, w}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := safeDiv(d4-d3, (d4-d3)+(d5-d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b))), [3]float64{0, 1 - w, w}
	}

	denom := va + vb + vc
	if denom <= degenerateArea2 {
		// Zero-area triangle that slipped past the region tests:
		// clamp to the nearest edge instead of dividing by ~0.
		return closestOnEdges(p, a, b, c)
	}
	v := vb / denom
	w := vc / denom
	q := r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
	return q, [3]float64{1 - v - w, v, w}
}

// closestOnEdges returns the nearest point over the three edges of abc,
// with barycentric coordinates on the winning edge's endpoints.
func closestOnEdges(p, a, b, c r3.Vec) (r3.Vec, [3]float64) {
	qab, tab := closestPointOnSegment(p, a, b)
	qbc, tbc := closestPointOnSegment(p, b, c)
	qca, tca := closestPointOnSegment(p, c, a)

	best := qab
	bary := [3]float64{1 - tab, tab, 0}
	bestD := r3.Norm2(r3.Sub(p, qab))

	if d := r3.Norm2(r3.Sub(p, qbc)); d < bestD {
		best, bary, bestD = qbc, [3]float64{0, 1 - tbc, tbc}, d
	}
	if d := r3.Norm2(r3.Sub(p, qca)); d < bestD {
		best, bary = qca, [3]float64{tca, 0, 1 - tca}
	}
	return best, bary
}

// closestPointOnSegment returns the nearest point on segment ab and its
// parameter t in [0,1]. A zero-length segment returns a with t=0.
func closestPointOnSegment(p, a, b r3.Vec) (r3.Vec, float64) {
	ab := r3.Sub(b, a)
	len2 := r3.Norm2(ab)
	if len2 == 0 {
		return a, 0
	}
	t := r3.Dot(r3.Sub(p, a), ab) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return r3.Add(a, r3.Scale(t, ab)), t
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
