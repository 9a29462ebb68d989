package gpu

import (
	"testing"
	"unsafe"
)

func TestUniformsSize(t *testing.T) {
	// 28 vec4 lanes, 16 bytes each. WGSL uniform layout rounds the struct
	// to 16-byte alignment, so the Go struct must contain no padding.
	const want = 28 * 16
	if UniformsSize != want {
		t.Fatalf("UniformsSize = %d, want %d", UniformsSize, want)
	}
	if UniformsSize%16 != 0 {
		t.Fatalf("UniformsSize = %d is not 16-byte aligned", UniformsSize)
	}
}

func TestUniformsOffsets(t *testing.T) {
	// Offsets must match the field order of the WGSL Params struct.
	var u Uniforms
	base := uintptr(unsafe.Pointer(&u))
	offsets := []struct {
		name string
		ptr  unsafe.Pointer
		want uintptr
	}{
		{"Tone0", unsafe.Pointer(&u.Tone0), 0},
		{"Presence1", unsafe.Pointer(&u.Presence1), 48},
		{"HSL", unsafe.Pointer(&u.HSL), 64},
		{"Split0", unsafe.Pointer(&u.Split0), 192},
		{"WheelShadows", unsafe.Pointer(&u.WheelShadows), 224},
		{"Fx0", unsafe.Pointer(&u.Fx0), 272},
		{"BorderColor", unsafe.Pointer(&u.BorderColor), 320},
		{"Geom0", unsafe.Pointer(&u.Geom0), 352},
		{"Res", unsafe.Pointer(&u.Res), 384},
		{"Extract", unsafe.Pointer(&u.Extract), 400},
		{"Stage", unsafe.Pointer(&u.Stage), 416},
		{"BlurDir", unsafe.Pointer(&u.BlurDir), 432},
	}
	for _, o := range offsets {
		if got := uintptr(o.ptr) - base; got != o.want {
			t.Errorf("offset of %s = %d, want %d", o.name, got, o.want)
		}
	}
}

func TestUniformsBytes(t *testing.T) {
	var u Uniforms
	u.Tone0[0] = 1.5
	u.BlurDir[1] = 2.5

	b := u.Bytes()
	if len(b) != UniformsSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), UniformsSize)
	}
	// 1.5 as little-endian float32 is 00 00 C0 3F.
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0xC0 || b[3] != 0x3F {
		t.Errorf("Tone0[0] bytes = % x, want 00 00 c0 3f", b[:4])
	}
	off := UniformsSize - 16 + 4 // BlurDir[1]
	if b[off+2] != 0x20 || b[off+3] != 0x40 {
		t.Errorf("BlurDir[1] bytes = % x, want 00 00 20 40", b[off:off+4])
	}
}
