package vulkan

import (
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/renderer"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

func TestVertexInputDescriptions(t *testing.T) {
	binding, attributes := vertexInputDescriptions()
	if binding.Binding != 0 || binding.Stride != 28 || binding.InputRate != vk.VertexInputRateVertex {
		t.Fatalf("binding\nhave %d/%d/%d\nwant 0/28/vertex", binding.Binding, binding.Stride, binding.InputRate)
	}
	if len(attributes) != 2 {
		t.Fatalf("attributes\nhave %d\nwant 2", len(attributes))
	}
	if a := attributes[0]; a.Location != 0 || a.Format != vk.FormatR32g32b32Sfloat || a.Offset != 0 {
		t.Fatalf("position attribute\nhave %d/%d/%d", a.Location, a.Format, a.Offset)
	}
	if a := attributes[1]; a.Location != 1 || a.Format != vk.FormatR32g32b32a32Sfloat || a.Offset != 12 {
		t.Fatalf("color attribute\nhave %d/%d/%d", a.Location, a.Format, a.Offset)
	}
}

func TestPipelineStates(t *testing.T) {
	s := newPipelineStates(vk.Extent2D{Width: 1280, Height: 720})

	if s.inputAssembly.Topology != vk.PrimitiveTopologyTriangleList {
		t.Fatal("topology must be a triangle list")
	}
	r := s.rasterizer
	if r.PolygonMode != vk.PolygonModeFill || r.CullMode != vk.CullModeFlags(vk.CullModeBackBit) || r.FrontFace != vk.FrontFaceClockwise {
		t.Fatalf("rasterizer\nhave mode %d cull %d front %d", r.PolygonMode, r.CullMode, r.FrontFace)
	}
	if s.multisample.RasterizationSamples != vk.SampleCount1Bit {
		t.Fatal("pipeline must use a single sample")
	}
	blend := s.colorBlend.PAttachments[0]
	wantMask := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	if blend.BlendEnable != vk.False || blend.ColorWriteMask != wantMask {
		t.Fatalf("blend attachment\nhave enable %d mask %d", blend.BlendEnable, blend.ColorWriteMask)
	}
	vp := s.viewport.PViewports[0]
	if vp.Width != 1280 || vp.Height != 720 || vp.MaxDepth != 1 {
		t.Fatalf("viewport\nhave %+v", vp)
	}
	if sc := s.viewport.PScissors[0].Extent; sc.Width != 1280 || sc.Height != 720 {
		t.Fatalf("scissor\nhave %dx%d", sc.Width, sc.Height)
	}
}

func TestRenderPassCreateInfo(t *testing.T) {
	info := renderPassCreateInfo(vk.FormatA8b8g8r8UnormPack32)
	if info.AttachmentCount != 1 || info.SubpassCount != 1 || info.DependencyCount != 1 {
		t.Fatalf("counts\nhave %d/%d/%d\nwant 1/1/1", info.AttachmentCount, info.SubpassCount, info.DependencyCount)
	}
	a := info.PAttachments[0]
	if a.Format != vk.FormatA8b8g8r8UnormPack32 || a.LoadOp != vk.AttachmentLoadOpClear || a.StoreOp != vk.AttachmentStoreOpStore {
		t.Fatalf("attachment ops\nhave format %d load %d store %d", a.Format, a.LoadOp, a.StoreOp)
	}
	if a.InitialLayout != vk.ImageLayoutUndefined || a.FinalLayout != vk.ImageLayoutPresentSrc {
		t.Fatalf("attachment layouts\nhave %d -> %d", a.InitialLayout, a.FinalLayout)
	}
	d := info.PDependencies[0]
	if d.SrcSubpass != vk.SubpassExternal || d.DstSubpass != 0 {
		t.Fatalf("dependency subpasses\nhave %d -> %d", d.SrcSubpass, d.DstSubpass)
	}
	if d.DstStageMask != vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) {
		t.Fatalf("dependency stage\nhave %d", d.DstStageMask)
	}
}

func TestMeshBytes(t *testing.T) {
	vertices := []resources.Vertex{
		{Position: mgl32.Vec3{1, 2, 3}, Color: mgl32.Vec4{0, 0, 0, 1}},
		{Position: mgl32.Vec3{4, 5, 6}, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{7, 8, 9}, Color: mgl32.Vec4{1, 0, 0, 1}},
	}
	indices := []uint32{0, 1, 2}
	data := meshBytes(vertices, indices)
	if uint64(len(data)) != resources.MeshByteSize(3, 3) {
		t.Fatalf("mesh bytes\nhave %d\nwant %d", len(data), resources.MeshByteSize(3, 3))
	}
	if len(data) != 3*28+3*4 {
		t.Fatalf("mesh bytes\nhave %d\nwant %d", len(data), 3*28+3*4)
	}
	// Index 2 is the last word.
	if data[len(data)-4] != 2 {
		t.Fatalf("last index byte\nhave %d\nwant 2", data[len(data)-4])
	}
}

func TestBufferCreateInfoSharing(t *testing.T) {
	for _, tc := range []struct {
		name     string
		families []uint32
		mode     vk.SharingMode
		indices  []uint32
	}{
		{"none", nil, vk.SharingModeExclusive, nil},
		{"same family", []uint32{0, 0}, vk.SharingModeExclusive, nil},
		{"dedicated transfer", []uint32{0, 2}, vk.SharingModeConcurrent, []uint32{0, 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			info := bufferCreateInfo(96, meshBufferUsage, tc.families...)
			if info.SharingMode != tc.mode {
				t.Fatalf("sharing mode\nhave %d\nwant %d", info.SharingMode, tc.mode)
			}
			if info.QueueFamilyIndexCount != uint32(len(tc.indices)) || !slices.Equal(info.PQueueFamilyIndices, tc.indices) {
				t.Fatalf("families\nhave %d %v\nwant %v", info.QueueFamilyIndexCount, info.PQueueFamilyIndices, tc.indices)
			}
			if info.Size != 96 || info.Usage != meshBufferUsage {
				t.Fatalf("size/usage\nhave %d %d", info.Size, info.Usage)
			}
		})
	}
}

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	if err != nil {
		t.Fatalf("spirvWords failed: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("words\nhave %d\nwant 2", len(words))
	}
	for _, bad := range [][]byte{nil, {0x03, 0x02, 0x23}} {
		if _, err := spirvWords(bad); err == nil {
			t.Errorf("spirvWords(%v) accepted a malformed module", bad)
		}
	}
}

func TestShaderModuleCreateInfo(t *testing.T) {
	code := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	info, err := shaderModuleCreateInfo(code)
	if err != nil {
		t.Fatalf("shaderModuleCreateInfo failed: %v", err)
	}
	if info.CodeSize != uint64(len(code)) {
		t.Fatalf("code size\nhave %d\nwant %d", info.CodeSize, len(code))
	}
	if len(info.PCode) != 2 || info.SType != vk.StructureTypeShaderModuleCreateInfo {
		t.Fatalf("create info\nhave %d words, stype %d", len(info.PCode), info.SType)
	}
	if _, err := shaderModuleCreateInfo([]byte{0x03}); err == nil {
		t.Fatal("malformed module accepted")
	}
}

func TestShaderStageFlag(t *testing.T) {
	if shaderStageFlag(renderer.ShaderStageVertex) != vk.ShaderStageVertexBit {
		t.Fatal("vertex stage flag")
	}
	if shaderStageFlag(renderer.ShaderStageFragment) != vk.ShaderStageFragmentBit {
		t.Fatal("fragment stage flag")
	}
}

func TestMathClamp(t *testing.T) {
	if MathClamp(uint32(5), 1, 4) != 4 || MathClamp(uint32(0), 1, 4) != 1 || MathClamp(uint32(3), 1, 4) != 3 {
		t.Fatal("MathClamp")
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"a", "b\x00", ""}
	out := VulkanSafeStrings(in)
	if out[0] != "a\x00" || out[1] != "b\x00" || out[2] != "\x00" {
		t.Fatalf("safe strings\nhave %q", out)
	}
	if in[0] != "a" {
		t.Fatal("input slice modified")
	}
}

type foreignCommandBuffer struct {
	renderer.CommandBuffer
}

func TestCommandPoolFreeSkipsForeignBuffers(t *testing.T) {
	logger, buf := bufferLogger()
	pool := &VulkanCommandPool{ctx: &VulkanContext{logger: logger}}
	freed := &VulkanCommandBuffer{State: COMMAND_BUFFER_STATE_READY}

	pool.Free([]renderer.CommandBuffer{foreignCommandBuffer{}, freed})

	if freed.State != COMMAND_BUFFER_STATE_NOT_ALLOCATED {
		t.Fatalf("state\nhave %d\nwant %d", freed.State, COMMAND_BUFFER_STATE_NOT_ALLOCATED)
	}
	if !strings.Contains(buf.String(), "does not belong to the Vulkan backend") {
		t.Fatalf("foreign buffer not reported:\n%s", buf.String())
	}
}
