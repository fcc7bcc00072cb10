package vkframe

import (
	"github.com/andewx/vkframe/shaders"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const shaderEntryPoint = "main"

// shaderProgram is the vertex and fragment module pair of the triangle
// pipeline. It only lives until the pipeline is created.
type shaderProgram struct {
	device   vk.Device
	vertex   vk.ShaderModule
	fragment vk.ShaderModule
}

func loadShaderProgram(device vk.Device) (*shaderProgram, error) {
	vert, err := shaders.Vertex()
	if err != nil {
		return nil, err
	}
	frag, err := shaders.Fragment()
	if err != nil {
		return nil, err
	}

	p := &shaderProgram{device: device}
	if p.vertex, err = createShaderModule(device, vert); err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	if p.fragment, err = createShaderModule(device, frag); err != nil {
		p.destroy()
		return nil, errors.Wrap(err, "fragment shader")
	}
	return p, nil
}

func createShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	if err := shaders.Validate(code); err != nil {
		return vk.NullShaderModule, err
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if err := NewError(ret); err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "vkCreateShaderModule")
	}
	return module, nil
}

func (p *shaderProgram) stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.vertex,
			PName:  safeString(shaderEntryPoint),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.fragment,
			PName:  safeString(shaderEntryPoint),
		},
	}
}

func (p *shaderProgram) destroy() {
	if p.vertex != vk.NullShaderModule {
		vk.DestroyShaderModule(p.device, p.vertex, nil)
		p.vertex = vk.NullShaderModule
	}
	if p.fragment != vk.NullShaderModule {
		vk.DestroyShaderModule(p.device, p.fragment, nil)
		p.fragment = vk.NullShaderModule
	}
}
