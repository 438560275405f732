package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

// RenderableObject is a named instance of a mesh living in a device buffer.
type RenderableObject struct {
	ID       uuid.UUID
	Name     string
	Position mgl32.Vec3

	// Buffer holds the vertices followed by the indices.
	Buffer Buffer
	// IndexOffset is the byte offset of the first index in Buffer.
	IndexOffset uint64
	IndexCount  uint32

	active bool
}

// NewRenderableObject uploads the model geometry and returns the object. The
// caller keeps ownership of the model handle.
func NewRenderableObject(backend RendererBackend, name string, model *resources.ModelHandle, position mgl32.Vec3) (*RenderableObject, error) {
	vertices := model.Vertices()
	indices := model.Indices()

	buf, err := backend.UploadMesh(vertices, indices)
	if err != nil {
		return nil, errors.Wrapf(err, "uploading %s for object %s", model.Name(), name)
	}

	return &RenderableObject{
		ID:          uuid.New(),
		Name:        name,
		Position:    position,
		Buffer:      buf,
		IndexOffset: uint64(len(vertices)) * uint64(resources.VertexSize),
		IndexCount:  uint32(len(indices)),
		active:      true,
	}, nil
}

func (o *RenderableObject) IsActive() bool {
	return o.active
}

// Unload frees the device buffer. The object is inactive afterwards.
func (o *RenderableObject) Unload() {
	if o.Buffer != nil {
		o.Buffer.Destroy()
		o.Buffer = nil
	}
	o.active = false
}

// Scene is the ordered list of objects. Insertion order is draw order.
type Scene struct {
	objects []*RenderableObject
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Add(o *RenderableObject) {
	s.objects = append(s.objects, o)
}

// Objects returns a snapshot of the current object list.
func (s *Scene) Objects() []*RenderableObject {
	return append([]*RenderableObject(nil), s.objects...)
}

func (s *Scene) Len() int {
	return len(s.objects)
}

// Unload frees the device buffers of every object.
func (s *Scene) Unload() {
	for _, o := range s.objects {
		o.Unload()
	}
}
