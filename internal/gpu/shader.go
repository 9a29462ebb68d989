package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderCompileError reports a WGSL module that failed to compile. It
// carries the driver's diagnostic text verbatim. Compilation happens once
// at renderer initialization and a failure is a fatal configuration error,
// never retried.
type ShaderCompileError struct {
	// Label names the failing shader module.
	Label string
	// Diagnostic is the driver's compile diagnostic.
	Diagnostic string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("gpu: compiling shader %q: %s", e.Label, e.Diagnostic)
}

// PipelineLinkError reports a render pipeline that could not be created
// from validly compiled modules, the WebGPU analogue of a program link
// failure. Like compilation, this is fatal at initialization.
type PipelineLinkError struct {
	// Label names the failing pipeline.
	Label string
	// Diagnostic is the driver's validation diagnostic.
	Diagnostic string
}

func (e *PipelineLinkError) Error() string {
	return fmt.Sprintf("gpu: linking pipeline %q: %s", e.Label, e.Diagnostic)
}

// compileShader compiles one WGSL source into a shader module, wrapping any
// driver diagnostic in a ShaderCompileError.
func compileShader(device *wgpu.Device, label, source string) (*wgpu.ShaderModule, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, &ShaderCompileError{Label: label, Diagnostic: err.Error()}
	}
	return module, nil
}
