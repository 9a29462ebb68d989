package darkroom

import (
	"testing"

	"github.com/gogpu/darkroom/internal/gpu"
)

func loadedState() EditState {
	s := DefaultEditState()
	s.Exposure = 1
	s.Grain.Amount = 40
	s.Vignette.Amount = -50
	s.Blur.Amount = 20
	s.Bloom.Amount = 30
	s.Bloom.Threshold = 60
	s.Halation.Amount = 15
	s.Halation.Threshold = 80
	s.Border.Size = 8
	return s
}

func TestMarshalUniforms_OverridesZeroAmounts(t *testing.T) {
	s := loadedState()
	ps := passSetup{compositeTaps: true, srcW: 100, srcH: 100, outW: 100, outH: 100}

	plain := marshalUniforms(&s, gpu.Overrides{}, ps)
	if plain.Fx0[0] == 0 || plain.Fx0[3] == 0 || plain.Fx1[3] == 0 ||
		plain.Extract[2] == 0 || plain.Extract[3] == 0 || plain.Fx2[3] == 0 {
		t.Fatal("active effects marshaled as zero without overrides")
	}

	all := marshalUniforms(&s, gpu.Overrides{
		DisableVignette: true, DisableGrain: true, DisableBlur: true,
		DisableBloom: true, DisableHalation: true, DisableBorder: true,
	}, ps)
	checks := []struct {
		name string
		got  float32
	}{
		{"grain", all.Fx0[0]},
		{"vignette", all.Fx0[3]},
		{"blur", all.Fx1[3]},
		{"bloom weight", all.Extract[2]},
		{"halation weight", all.Extract[3]},
		{"border", all.Fx2[3]},
	}
	for _, c := range checks {
		if c.got != 0 {
			t.Errorf("%s = %v after override, want 0", c.name, c.got)
		}
	}

	// Overrides only zero amounts; the rest of the state is untouched.
	if all.Tone0[0] != 1 {
		t.Errorf("exposure = %v, want 1", all.Tone0[0])
	}
}

func TestMarshalUniforms_ExtractThreshold(t *testing.T) {
	near := func(got, want float32) bool {
		d := got - want
		return d > -1e-5 && d < 1e-5
	}

	s := loadedState() // bloom threshold 60, halation threshold 80
	u := marshalUniforms(&s, gpu.Overrides{}, passSetup{})
	if !near(u.Extract[0], 0.6) {
		t.Errorf("combined threshold = %v, want 0.6 (lower of the two)", u.Extract[0])
	}

	s.Bloom.Amount = 0
	u = marshalUniforms(&s, gpu.Overrides{}, passSetup{})
	if !near(u.Extract[0], 0.8) {
		t.Errorf("halation-only threshold = %v, want 0.8", u.Extract[0])
	}

	s.Halation.Amount = 0
	u = marshalUniforms(&s, gpu.Overrides{}, passSetup{})
	if u.Extract[0] != 0 {
		t.Errorf("threshold with no extract effects = %v, want 0", u.Extract[0])
	}
}

func TestMarshalUniforms_StageFlags(t *testing.T) {
	s := DefaultEditState()

	u := marshalUniforms(&s, gpu.Overrides{}, passSetup{applyGrade: true, elapsed: 2.5})
	if u.Stage[0] != 1 {
		t.Errorf("apply-grade lane = %v, want 1", u.Stage[0])
	}
	if u.Stage[1] != 0 {
		t.Errorf("flip lane = %v, want 0", u.Stage[1])
	}
	if u.Stage[2] != 2.5 {
		t.Errorf("elapsed lane = %v, want 2.5", u.Stage[2])
	}

	u = marshalUniforms(&s, gpu.Overrides{}, passSetup{flipY: true})
	if u.Stage[0] != 0 || u.Stage[1] != 1 {
		t.Errorf("stage lanes = %v, want passthrough with flip", u.Stage)
	}

	if u.Presence1[1] != 0 {
		t.Errorf("curve-identity lane = %v without curveIdentity, want 0", u.Presence1[1])
	}
	u = marshalUniforms(&s, gpu.Overrides{}, passSetup{curveIdentity: true})
	if u.Presence1[1] != 1 {
		t.Errorf("curve-identity lane = %v, want 1", u.Presence1[1])
	}
}

func TestMarshalUniforms_BorderColorStraightAlpha(t *testing.T) {
	s := DefaultEditState()
	s.Border.Size = 10
	s.Border.R, s.Border.G, s.Border.B, s.Border.A = 0.8, 0.6, 0.4, 0.5

	u := marshalUniforms(&s, gpu.Overrides{}, passSetup{srcW: 100, srcH: 100, outW: 100, outH: 100})
	want := [4]float32{0.8, 0.6, 0.4, 0.5}
	if u.BorderColor != want {
		t.Errorf("BorderColor = %v, want straight-alpha %v", u.BorderColor, want)
	}
}

func TestGeometryMatrix(t *testing.T) {
	tests := []struct {
		name     string
		rotation int
		flipH    bool
		flipV    bool
		want     [4]float32
	}{
		{name: "identity", want: [4]float32{1, 0, 0, 1}},
		{name: "rot 90", rotation: 90, want: [4]float32{0, -1, 1, 0}},
		{name: "rot 180", rotation: 180, want: [4]float32{-1, 0, 0, -1}},
		{name: "rot 270", rotation: 270, want: [4]float32{0, 1, -1, 0}},
		{name: "flip h", flipH: true, want: [4]float32{-1, 0, 0, 1}},
		{name: "flip v", flipV: true, want: [4]float32{1, 0, 0, -1}},
		{name: "rot 180 + both flips", rotation: 180, flipH: true, flipV: true, want: [4]float32{1, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := EditState{Rotation: tt.rotation, FlipH: tt.flipH, FlipV: tt.flipV}
			if got := geometryMatrix(&s); got != tt.want {
				t.Errorf("geometryMatrix = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCropWindow(t *testing.T) {
	s := EditState{}
	if got := cropWindow(&s); got != [4]float32{0, 0, 1, 1} {
		t.Errorf("disabled crop window = %v, want full frame", got)
	}
	s.Crop = CropRect{X: 0.1, Y: 0.2, W: 0.5, H: 0.25}
	if got := cropWindow(&s); got != [4]float32{0.1, 0.2, 0.5, 0.25} {
		t.Errorf("crop window = %v", got)
	}
}

func TestBlurStep(t *testing.T) {
	h := blurStep(0, true, 200, 100)
	if h[1] != 0 || h[0] != 1.0/200 {
		t.Errorf("horizontal step = %v, want {0.005, 0}", h)
	}
	v := blurStep(0, false, 200, 100)
	if v[0] != 0 || v[1] != 1.0/100 {
		t.Errorf("vertical step = %v, want {0, 0.01}", v)
	}
	wide := blurStep(100, true, 200, 100)
	if wide[0] <= h[0] {
		t.Errorf("radius 100 step %v not wider than radius 0 step %v", wide[0], h[0])
	}
}

func TestSetTextureFlags(t *testing.T) {
	var u gpu.Uniforms
	setTextureFlags(&u, false, 0)
	if u.Presence1[3] != 0 || u.Split1[3] != 0 {
		t.Error("texture flags set without a LUT")
	}
	setTextureFlags(&u, true, 17)
	if u.Presence1[3] != 1 || u.Split1[3] != 17 {
		t.Errorf("lut lanes = %v/%v, want 1/17", u.Presence1[3], u.Split1[3])
	}
}
