package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrReadbackMap is returned when mapping the readback staging buffer fails.
var ErrReadbackMap = errors.New("gpu: mapping readback buffer failed")

// readback row alignment required by WebGPU buffer copies.
const rowAlign = 256

// ReadTexture copies a rendered RGBA8 texture into host memory through a
// staging buffer and returns tightly packed pixels (width*4 bytes per row,
// top row first). It blocks until the GPU has finished the copy.
func ReadTexture(device *Device, tex *wgpu.Texture, w, h int) ([]byte, error) {
	paddedRow := (w*4 + rowAlign - 1) / rowAlign * rowAlign
	size := uint64(paddedRow * h)

	staging, err := device.Handle().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "darkroom.readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := device.Handle().CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: creating readback encoder: %w", err)
	}
	defer encoder.Release()

	encoder.CopyTextureToBuffer(
		tex.AsImageCopy(),
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(paddedRow),
				RowsPerImage: uint32(h),
			},
		},
		&wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("gpu: finishing readback encoder: %w", err)
	}
	device.Queue().Submit(cmd)
	cmd.Release()

	done := make(chan error, 1)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("%w: %v", ErrReadbackMap, status)
			return
		}
		done <- nil
	})
	device.Poll()
	if err := <-done; err != nil {
		return nil, err
	}
	defer staging.Unmap()

	mapped := staging.GetMappedRange(0, uint(size))
	out := make([]byte, w*4*h)
	for row := 0; row < h; row++ {
		copy(out[row*w*4:(row+1)*w*4], mapped[row*paddedRow:row*paddedRow+w*4])
	}
	return out, nil
}
