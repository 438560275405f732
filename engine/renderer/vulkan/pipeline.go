package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

type VulkanPipelineLayout struct {
	ctx    *VulkanContext
	Handle vk.PipelineLayout
}

func (l *VulkanPipelineLayout) Destroy() {
	if l.Handle != nil {
		vk.DestroyPipelineLayout(l.ctx.Device.LogicalDevice, l.Handle, l.ctx.Allocator)
		l.Handle = nil
	}
}

// VulkanPipeline holds a graphics pipeline. Its layout is owned separately.
type VulkanPipeline struct {
	ctx    *VulkanContext
	Handle vk.Pipeline
}

func (p *VulkanPipeline) Destroy() {
	if p.Handle != nil {
		vk.DestroyPipeline(p.ctx.Device.LogicalDevice, p.Handle, p.ctx.Allocator)
		p.Handle = nil
	}
}

// NewPipelineLayout creates a layout without descriptor sets or push constants.
func NewPipelineLayout(ctx *VulkanContext) (*VulkanPipelineLayout, error) {
	createInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var handle vk.PipelineLayout
	if res := vk.CreatePipelineLayout(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "vkCreatePipelineLayout")
	}
	return &VulkanPipelineLayout{ctx: ctx, Handle: handle}, nil
}

// vertexInputDescriptions matches resources.Vertex: position at location 0,
// color at location 1, one interleaved binding.
func vertexInputDescriptions() (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(resources.VertexSize),
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(resources.PositionOffset),
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(resources.ColorOffset),
		},
	}
	return binding, attributes
}

// pipelineStates is the fixed-function state of the scene pipeline.
type pipelineStates struct {
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewport      vk.PipelineViewportStateCreateInfo
	rasterizer    vk.PipelineRasterizationStateCreateInfo
	multisample   vk.PipelineMultisampleStateCreateInfo
	colorBlend    vk.PipelineColorBlendStateCreateInfo
}

func newPipelineStates(extent vk.Extent2D) pipelineStates {
	binding, attributes := vertexInputDescriptions()

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}

	return pipelineStates{
		vertexInput: vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   1,
			PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		inputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		viewport: vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Offset: vk.Offset2D{X: 0, Y: 0},
				Extent: extent,
			}},
		},
		rasterizer: vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			LineWidth:               1.0,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
		},
		multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
			SampleShadingEnable:   vk.False,
			RasterizationSamples:  vk.SampleCount1Bit,
			MinSampleShading:      1.0,
			AlphaToCoverageEnable: vk.False,
			AlphaToOneEnable:      vk.False,
		},
		colorBlend: vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
		},
	}
}

// NewGraphicsPipeline builds the scene pipeline: no depth test, no dynamic
// state, viewport and scissor baked to extent.
func NewGraphicsPipeline(ctx *VulkanContext, renderpass *VulkanRenderPass, layout *VulkanPipelineLayout, stages []*VulkanShaderStage, extent vk.Extent2D) (*VulkanPipeline, error) {
	states := newPipelineStates(extent)

	stageInfos := make([]vk.PipelineShaderStageCreateInfo, len(stages))
	for i, s := range stages {
		stageInfos[i] = s.CreateInfo()
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stageInfos)),
		PStages:             stageInfos,
		PVertexInputState:   &states.vertexInput,
		PInputAssemblyState: &states.inputAssembly,
		PViewportState:      &states.viewport,
		PRasterizationState: &states.rasterizer,
		PMultisampleState:   &states.multisample,
		PDepthStencilState:  nil,
		PColorBlendState:    &states.colorBlend,
		PDynamicState:       nil,
		Layout:              layout.Handle,
		RenderPass:          renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		ctx.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		ctx.Allocator,
		pipelines); res != vk.Success {
		return nil, resultError(res, "vkCreateGraphicsPipelines")
	}

	ctx.logger.Debug("Graphics pipeline created!")
	return &VulkanPipeline{ctx: ctx, Handle: pipelines[0]}, nil
}
