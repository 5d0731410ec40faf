// Package shaders holds the GLSL sources for the triangle pipeline. The
// renderer loads the compiled SPIR-V from spv/ at runtime.
package shaders

//go:generate glslc src/triangle.vert -o spv/triangle.vert.spv
//go:generate glslc src/triangle.frag -o spv/triangle.frag.spv
