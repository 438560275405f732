package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/renderer"
)

// VulkanShaderStage is a shader module plus the stage it is bound to.
type VulkanShaderStage struct {
	ctx    *VulkanContext
	Handle vk.ShaderModule
	stage  renderer.ShaderStageType
}

func (s *VulkanShaderStage) Stage() renderer.ShaderStageType {
	return s.stage
}

func (s *VulkanShaderStage) Destroy() {
	if s.Handle != nil {
		vk.DestroyShaderModule(s.ctx.Device.LogicalDevice, s.Handle, s.ctx.Allocator)
		s.Handle = nil
	}
}

// CreateInfo describes the stage for pipeline creation. Entry point is main.
func (s *VulkanShaderStage) CreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageFlag(s.stage),
		Module: s.Handle,
		PName:  VulkanSafeString("main"),
	}
}

func shaderStageFlag(stage renderer.ShaderStageType) vk.ShaderStageFlagBits {
	if stage == renderer.ShaderStageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

// spirvWords copies SPIR-V byte code into 32-bit words in host order.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("invalid SPIR-V size %d", len(code))
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)
	return words, nil
}

// shaderModuleCreateInfo describes a module over code. CodeSize is in bytes.
func shaderModuleCreateInfo(code []byte) (vk.ShaderModuleCreateInfo, error) {
	words, err := spirvWords(code)
	if err != nil {
		return vk.ShaderModuleCreateInfo{}, err
	}
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}, nil
}

func NewShaderStage(ctx *VulkanContext, code []byte, stage renderer.ShaderStageType) (*VulkanShaderStage, error) {
	createInfo, err := shaderModuleCreateInfo(code)
	if err != nil {
		return nil, errors.Wrapf(err, "%s shader", stage)
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &module); res != vk.Success {
		return nil, errors.Wrapf(resultError(res, "vkCreateShaderModule"), "%s shader", stage)
	}
	return &VulkanShaderStage{ctx: ctx, Handle: module, stage: stage}, nil
}
