package resources

import (
	"slices"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the layout consumed by the graphics pipeline: position at
// location 0, color at location 1.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
}

const (
	VertexSize     = unsafe.Sizeof(Vertex{})
	PositionOffset = unsafe.Offsetof(Vertex{}.Position)
	ColorOffset    = unsafe.Offsetof(Vertex{}.Color)
	IndexSize      = unsafe.Sizeof(uint32(0))
)

// Mesh is vertex and index data shared by every object created from it.
type Mesh struct {
	Name     string
	vertices []Vertex
	indices  []uint32
	usage    atomic.Int32
}

func NewMesh(name string, vertices []Vertex, indices []uint32) *Mesh {
	return &Mesh{
		Name:     name,
		vertices: slices.Clone(vertices),
		indices:  slices.Clone(indices),
	}
}

// ByteSize is the size of the combined vertex and index storage.
func (m *Mesh) ByteSize() uint64 {
	return MeshByteSize(len(m.vertices), len(m.indices))
}

// MeshByteSize is the size of vertexCount vertices followed by indexCount
// 32-bit indices.
func MeshByteSize(vertexCount, indexCount int) uint64 {
	return uint64(VertexSize)*uint64(vertexCount) + uint64(IndexSize)*uint64(indexCount)
}

// VertexBytes views vertices as raw bytes without copying.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexSize))
}

// IndexBytes views indices as raw bytes without copying.
func IndexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*int(IndexSize))
}

// ModelHandle gives access to a mesh while holding one usage count on it.
type ModelHandle struct {
	mesh     *Mesh
	released atomic.Bool
}

func newModelHandle(m *Mesh) *ModelHandle {
	m.usage.Add(1)
	return &ModelHandle{mesh: m}
}

func (h *ModelHandle) Name() string {
	return h.mesh.Name
}

// Vertices returns a copy of the mesh vertices.
func (h *ModelHandle) Vertices() []Vertex {
	return slices.Clone(h.mesh.vertices)
}

// Indices returns a copy of the mesh indices.
func (h *ModelHandle) Indices() []uint32 {
	return slices.Clone(h.mesh.indices)
}

func (h *ModelHandle) ByteSize() uint64 {
	return h.mesh.ByteSize()
}

// Release drops the usage count taken by the lookup. Only the first call has
// an effect.
func (h *ModelHandle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.mesh.usage.Add(-1)
	}
}

func rectangleMesh() *Mesh {
	return NewMesh("rectangle", []Vertex{
		{Position: mgl32.Vec3{-0.9, -0.9, 0.0}, Color: mgl32.Vec4{1.0, 0.0, 0.0, 1.0}},
		{Position: mgl32.Vec3{0.0, 0.0, 0.0}, Color: mgl32.Vec4{0.0, 1.0, 0.0, 1.0}},
		{Position: mgl32.Vec3{-0.9, 0.0, 0.0}, Color: mgl32.Vec4{0.0, 0.0, 1.0, 1.0}},
		{Position: mgl32.Vec3{0.0, -0.9, 0.0}, Color: mgl32.Vec4{1.0, 1.0, 1.0, 1.0}},
	}, []uint32{0, 1, 2, 1, 0, 3})
}

func triangleMesh() *Mesh {
	return NewMesh("triangle", []Vertex{
		{Position: mgl32.Vec3{0.1, 0.8, 0.0}, Color: mgl32.Vec4{1.0, 0.0, 0.0, 1.0}},
		{Position: mgl32.Vec3{0.1, -0.8, 0.0}, Color: mgl32.Vec4{0.0, 1.0, 0.0, 1.0}},
		{Position: mgl32.Vec3{0.8, 0.8, 0.0}, Color: mgl32.Vec4{0.0, 0.0, 1.0, 1.0}},
	}, []uint32{0, 1, 2})
}
