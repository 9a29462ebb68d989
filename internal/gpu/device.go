// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu owns every WebGPU resource behind the darkroom renderer:
// the device, the compiled pipeline set, the texture set, the ping-pong
// render targets, and the per-pass uniform marshaling.
//
// All GPU state is modeled as explicit values passed between functions.
// Nothing in this package relies on ambient binding state, so pass ordering
// and resource lifetime are auditable from the call sites alone.
package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device errors.
var (
	// ErrNoWebGPU is returned when no WebGPU implementation is available.
	ErrNoWebGPU = errors.New("gpu: webgpu instance unavailable")

	// ErrNoAdapter is returned when no suitable GPU adapter exists.
	ErrNoAdapter = errors.New("gpu: no suitable adapter")

	// ErrDeviceReleased is returned when operating on a released device.
	ErrDeviceReleased = errors.New("gpu: device has been released")
)

// Device bundles the WebGPU device and queue used by one renderer.
//
// A Device is either created by [NewDevice] (owned: Release tears the
// underlying device down) or wraps a host-provided device via [WrapDevice]
// (borrowed: Release only drops the reference). The borrowed form lets a
// host application share one GPU device between darkroom and its own
// rendering.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	owned    bool
}

// NewDevice creates a GPU device on the highest-performance available
// adapter. Initialization is synchronous and happens once; failure is
// unrecoverable for the renderer that requested it.
func NewDevice() (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, ErrNoWebGPU
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: requesting device: %w", err)
	}

	logger().Info("gpu device ready", "power", "high-performance")

	return &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		owned:    true,
	}, nil
}

// WrapDevice wraps a host-provided device and queue. The host keeps
// ownership: Release on the returned Device never destroys the underlying
// resources.
func WrapDevice(device *wgpu.Device, queue *wgpu.Queue) *Device {
	return &Device{device: device, queue: queue}
}

// Handle returns the underlying wgpu device.
func (d *Device) Handle() *wgpu.Device { return d.device }

// Queue returns the device's command queue.
func (d *Device) Queue() *wgpu.Queue { return d.queue }

// Poll blocks until queued GPU work has been processed.
func (d *Device) Poll() {
	if d.device != nil {
		d.device.Poll(true, nil)
	}
}

// Release frees the device if owned. Safe to call more than once.
func (d *Device) Release() {
	if !d.owned {
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
		d.queue = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
