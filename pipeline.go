package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// pipelineBuilder holds the fixed-function state of the triangle pipeline.
// Viewport and scissor are dynamic so the pipeline survives resizes.
type pipelineBuilder struct {
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewportState vk.PipelineViewportStateCreateInfo
	rasterizer    vk.PipelineRasterizationStateCreateInfo
	multisampling vk.PipelineMultisampleStateCreateInfo
	blend         vk.PipelineColorBlendAttachmentState
	dynamicStates []vk.DynamicState
}

func newPipelineBuilder() *pipelineBuilder {
	pb := &pipelineBuilder{}

	// Positions come from gl_VertexIndex, no vertex buffers.
	pb.vertexInput = vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	pb.inputAssembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pb.viewportState = vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	pb.rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	pb.multisampling = vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCount1Bit,
		SampleShadingEnable:   vk.False,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	pb.blend = vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}

	pb.dynamicStates = []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	return pb
}

// graphicsPipeline is the one pipeline and its empty layout.
type graphicsPipeline struct {
	device   vk.Device
	layout   vk.PipelineLayout
	pipeline vk.Pipeline
}

// build creates the pipeline for subpass 0 of pass. The shader modules are
// destroyed before build returns, whether or not it succeeds.
func (pb *pipelineBuilder) build(device vk.Device, pass vk.RenderPass, program *shaderProgram) (*graphicsPipeline, error) {
	defer program.destroy()

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device, &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}, nil, &layout)
	if err := NewError(ret); err != nil {
		return nil, errors.Wrap(err, "vkCreatePipelineLayout")
	}

	stages := program.stages()
	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &pb.vertexInput,
		PInputAssemblyState: &pb.inputAssembly,
		PViewportState:      &pb.viewportState,
		PRasterizationState: &pb.rasterizer,
		PMultisampleState:   &pb.multisampling,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{pb.blend},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(pb.dynamicStates)),
			PDynamicStates:    pb.dynamicStates,
		},
		Layout:            layout,
		RenderPass:        pass,
		Subpass:           0,
		BasePipelineIndex: -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := NewError(ret); err != nil {
		vk.DestroyPipelineLayout(device, layout, nil)
		return nil, errors.Wrap(err, "vkCreateGraphicsPipelines")
	}
	return &graphicsPipeline{device: device, layout: layout, pipeline: pipelines[0]}, nil
}

func (p *graphicsPipeline) destroy() {
	if p.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(p.device, p.pipeline, nil)
		p.pipeline = vk.NullPipeline
	}
	if p.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(p.device, p.layout, nil)
		p.layout = vk.NullPipelineLayout
	}
}
