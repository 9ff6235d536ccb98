package common

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestMul4Identity(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], Vec3{1, 2, 3}, Vec3{0.3, 0.2, 0.1}, Vec3{2, 2, 2})
	id := IdentityMat4()

	var out Mat4
	Mul4(out[:], id[:], m[:])
	if out != m {
		t.Errorf("I*M = %v, want %v", out, m)
	}
	Mul4(out[:], m[:], id[:])
	if out != m {
		t.Errorf("M*I = %v, want %v", out, m)
	}
}

func TestLookRotationHorizontalBillboard(t *testing.T) {
	tests := []struct {
		name    string
		forward Vec3
	}{
		{"along z", Vec3{0, 0, 1}},
		{"along x", Vec3{1, 0, 0}},
		{"diagonal", Vec3{-3, 0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Mat4
			pos := Vec3{4, 0.5, -2}
			LookRotation(m[:], tt.forward, Vec3{0, 1, 0}, pos)

			d := tt.forward.Normalize()
			// A flat quad in the local XY plane only depends on the first two columns:
			// column 0 = (d.z, 0, -d.x), column 1 = +Y.
			want := [8]float32{d[2], 0, -d[0], 0, 0, 1, 0, 0}
			for i := range want {
				if !approx(m[i], want[i]) {
					t.Fatalf("m[%d] = %v, want %v (matrix %v)", i, m[i], want[i], m)
				}
			}
			if m[12] != pos[0] || m[13] != pos[1] || m[14] != pos[2] {
				t.Errorf("translation = %v, want %v", m[12:15], pos)
			}
		})
	}
}

func TestLookRotationDegenerateForward(t *testing.T) {
	var m Mat4
	LookRotation(m[:], Vec3{}, Vec3{0, 1, 0}, Vec3{1, 2, 3})
	want := IdentityMat4()
	want[12], want[13], want[14] = 1, 2, 3
	if m != want {
		t.Errorf("zero forward = %v, want %v", m, want)
	}

	LookRotation(m[:], Vec3{0, 5, 0}, Vec3{0, 1, 0}, Vec3{1, 2, 3})
	if m != want {
		t.Errorf("forward parallel to up = %v, want %v", m, want)
	}
}

func TestFrustumContainsSphere(t *testing.T) {
	var view, proj, vp Mat4
	LookAt(view[:], Vec3{0, 0, 5}, Vec3{0, 0, 0}, Vec3{0, 1, 0})
	Perspective(proj[:], math.Pi/3, 1, 0.1, 100)
	Mul4(vp[:], proj[:], view[:])
	f := ExtractFrustumFromMatrix(vp[:])

	tests := []struct {
		name   string
		center Vec3
		radius float32
		want   bool
	}{
		{"origin", Vec3{0, 0, 0}, 1, true},
		{"far to the side", Vec3{1000, 0, 0}, 1, false},
		{"behind camera", Vec3{0, 0, 50}, 1, false},
		{"beyond far plane", Vec3{0, 0, -500}, 1, false},
		{"straddling the left edge", Vec3{-3.5, 0, 0}, 2, true},
	}
	for _, tt := range tests {
		if got := f.ContainsSphere(tt.center, tt.radius); got != tt.want {
			t.Errorf("%s: ContainsSphere = %v, want %v", tt.name, got, tt.want)
		}
	}
}
