package transform

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecNear(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestDegreeRadianRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 180, -90, 370, 45.5} {
		if got := ToDegrees(ToRadians(deg)); math.Abs(got-deg) > eps {
			t.Errorf("ToDegrees(ToRadians(%v)) = %v", deg, got)
		}
		if got := ToRadians(ToDegrees(deg)); math.Abs(got-deg) > eps {
			t.Errorf("ToRadians(ToDegrees(%v)) = %v", deg, got)
		}
	}
	if got := ToRadians(180); math.Abs(got-math.Pi) > eps {
		t.Errorf("ToRadians(180) = %v, want pi", got)
	}
}

func TestMat4MulIdentity(t *testing.T) {
	m := Translation(V3(1, 2, 3)).Mul(Scaling(V3(2, 2, 2)))
	if !Identity4().Mul(m).ApproxEqual(m, eps) {
		t.Error("I * m != m")
	}
	if !m.Mul(Identity4()).ApproxEqual(m, eps) {
		t.Error("m * I != m")
	}
}

func TestMat4MulOrder(t *testing.T) {
	// Translation * Scaling scales first, then translates.
	m := Translation(V3(10, 0, 0)).Mul(Scaling(V3(2, 2, 2)))
	got := m.TransformPoint(V3(1, 1, 1))
	if !vecNear(got, V3(12, 2, 2), eps) {
		t.Errorf("T*S applied to (1,1,1) = %+v, want (12,2,2)", got)
	}

	m = Scaling(V3(2, 2, 2)).Mul(Translation(V3(10, 0, 0)))
	got = m.TransformPoint(V3(1, 1, 1))
	if !vecNear(got, V3(22, 2, 2), eps) {
		t.Errorf("S*T applied to (1,1,1) = %+v, want (22,2,2)", got)
	}
}

func TestQuatFromEuler(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		in      Vec3
		want    Vec3
	}{
		{"identity", 0, 0, 0, V3(1, 2, 3), V3(1, 2, 3)},
		{"z 90", 0, 0, math.Pi / 2, V3(1, 0, 0), V3(0, 1, 0)},
		{"y 90", 0, math.Pi / 2, 0, V3(1, 0, 0), V3(0, 0, -1)},
		{"x 90", math.Pi / 2, 0, 0, V3(0, 1, 0), V3(0, 0, 1)},
		// X applies before Y: (0,1,0) -> (0,0,1) -> (1,0,0).
		{"x then y", math.Pi / 2, math.Pi / 2, 0, V3(0, 1, 0), V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := QuatFromEuler(tt.x, tt.y, tt.z).Mat4()
			got := m.TransformPoint(tt.in)
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("rotate %+v = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformModelMatrixCaching(t *testing.T) {
	tr := New()
	if !tr.ModelMatrix().ApproxEqual(Identity4(), eps) {
		t.Fatal("new transform should have identity model matrix")
	}

	tr.SetTranslation(0, 0, -4)
	got := tr.ModelMatrix().TransformPoint(Vec3{})
	if !vecNear(got, V3(0, 0, -4), eps) {
		t.Errorf("translated origin = %+v", got)
	}

	// The matrix follows the last set value.
	tr.SetTranslation(1, 0, 0)
	got = tr.ModelMatrix().TransformPoint(Vec3{})
	if !vecNear(got, V3(1, 0, 0), eps) {
		t.Errorf("re-translated origin = %+v", got)
	}

	tr.SetScale(2, 3, 4)
	got = tr.ModelMatrix().TransformPoint(V3(1, 1, 1))
	// scale * (p + t): (2*2, 3*1, 4*1)
	if !vecNear(got, V3(4, 3, 4), eps) {
		t.Errorf("scaled point = %+v", got)
	}
}

func TestLookAtOriginFromPositiveZ(t *testing.T) {
	v := LookAt(V3(0, 0, 5), Vec3{}, V3(0, 1, 0))
	got := v.TransformPoint(Vec3{})
	if !vecNear(got, V3(0, 0, -5), eps) {
		t.Errorf("origin in view space = %+v, want (0,0,-5)", got)
	}
	if !LookAt(V3(1, 1, 1), V3(1, 1, 1), V3(0, 1, 0)).ApproxEqual(Identity4(), eps) {
		t.Error("degenerate look-at should be identity")
	}
}

func TestPerspectiveMatrixDepthRange(t *testing.T) {
	p := PerspectiveMatrix(DefaultFOV, 1, 0.1, 100)

	near := p.MulVec4(V3(0, 0, -0.1).Point())
	if z := near.Z / near.W; math.Abs(z+1) > 1e-9 {
		t.Errorf("near plane ndc z = %v, want -1", z)
	}
	far := p.MulVec4(V3(0, 0, -100).Point())
	if z := far.Z / far.W; math.Abs(z-1) > 1e-9 {
		t.Errorf("far plane ndc z = %v, want 1", z)
	}

	inf := PerspectiveMatrix(DefaultFOV, 1, 0.1, math.Inf(1))
	if inf[10] != -1 || inf[14] != -0.2 {
		t.Errorf("infinite far: m[10]=%v m[14]=%v", inf[10], inf[14])
	}
}

func TestMVPMatrixOrder(t *testing.T) {
	tr := New()
	tr.SetTranslation(0, 0, -2)
	eye := V3(0, 0, 5)
	p := DefaultPerspective()

	want := p.Matrix().Mul(LookAt(eye, Vec3{}, V3(0, 1, 0))).Mul(tr.ModelMatrix())
	if !tr.MVPMatrix(eye, p).ApproxEqual(want, eps) {
		t.Error("MVP must equal projection * view * model")
	}

	reversed := tr.ModelMatrix().Mul(LookAt(eye, Vec3{}, V3(0, 1, 0))).Mul(p.Matrix())
	if tr.MVPMatrix(eye, p).ApproxEqual(reversed, eps) {
		t.Error("MVP unexpectedly equals model * view * projection")
	}
}
