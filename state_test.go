package darkroom

import (
	"testing"

	"github.com/soypat/geometry/ms2"
)

func TestDefaultEditState(t *testing.T) {
	s := DefaultEditState()

	if !s.Curve.IsIdentity() {
		t.Error("default curve is not identity")
	}
	if s.LUTIntensity != 100 {
		t.Errorf("LUTIntensity = %v, want 100", s.LUTIntensity)
	}
	if s.Sharpen.Radius != 1 {
		t.Errorf("Sharpen.Radius = %v, want 1", s.Sharpen.Radius)
	}
	if s.Exposure != 0 || s.Contrast != 0 || s.Saturation != 0 {
		t.Error("default tone adjustments are not zero")
	}
	if s.Crop.Enabled() {
		t.Error("default crop is enabled")
	}
}

func TestToneCurve_IsIdentity(t *testing.T) {
	tests := []struct {
		name string
		pts  []ms2.Vec
		want bool
	}{
		{name: "nil", pts: nil, want: true},
		{name: "empty", pts: []ms2.Vec{}, want: true},
		{name: "two-point identity", pts: []ms2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}}, want: true},
		{name: "lifted black", pts: []ms2.Vec{{X: 0, Y: 0.05}, {X: 1, Y: 1}}, want: false},
		{
			// Evaluates to the identity function but has an extra control
			// point; the check is structural.
			name: "three-point identity",
			pts:  []ms2.Vec{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}},
			want: false,
		},
		{name: "single point", pts: []ms2.Vec{{X: 0, Y: 0}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := ToneCurve{Luma: tt.pts}
			if got := tc.IsIdentity(); got != tt.want {
				t.Errorf("IsIdentity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToneCurve_ChannelIndependence(t *testing.T) {
	tc := ToneCurve{Red: []ms2.Vec{{X: 0, Y: 0.1}, {X: 1, Y: 1}}}
	if tc.IsIdentity() {
		t.Error("curve with adjusted red channel reported identity")
	}
	if got := tc.Channel(CurveRed); len(got) != 2 || got[0].Y != 0.1 {
		t.Errorf("Channel(CurveRed) = %v", got)
	}
	if got := tc.Channel(CurveLuma); got != nil {
		t.Errorf("Channel(CurveLuma) = %v, want nil", got)
	}
}

func TestEditState_CloneDoesNotAlias(t *testing.T) {
	s := DefaultEditState()
	c := s.Clone()

	c.Curve.Luma[1].Y = 0.5
	if s.Curve.Luma[1].Y != 1 {
		t.Error("mutating the clone's curve changed the original")
	}

	// Plain assignment, by contrast, shares the slices.
	shared := s
	shared.Curve.Luma[0].Y = 0.2
	if s.Curve.Luma[0].Y != 0.2 {
		t.Error("plain copy does not share curve slices")
	}
}

func TestToneCurve_Equal(t *testing.T) {
	a := DefaultEditState().Curve
	b := DefaultEditState().Curve
	if !a.equal(&b) {
		t.Error("identical curves reported unequal")
	}
	b.Blue[1].Y = 0.9
	if a.equal(&b) {
		t.Error("different curves reported equal")
	}
}

func TestCropRect_Enabled(t *testing.T) {
	if (CropRect{}).Enabled() {
		t.Error("zero crop reports enabled")
	}
	if !(CropRect{X: 0.1, Y: 0.1, W: 0.5, H: 0.5}).Enabled() {
		t.Error("non-empty crop reports disabled")
	}
	if (CropRect{X: 0.1, Y: 0.1}).Enabled() {
		t.Error("zero-extent crop reports enabled")
	}
}
