package resources

import (
	"path/filepath"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/core"
)

// Shader is raw SPIR-V byte code registered under a manifest name.
type Shader struct {
	Name string
	Path string
	Code []byte
}

// Store owns shader byte code and mesh data. Lookups are by name.
type Store struct {
	dir      string
	manifest string
	logger   *core.Logger

	mu      sync.RWMutex
	shaders map[string]*Shader
	meshes  map[string]*Mesh
	// load order, for logging and watcher filtering
	shaderNames []string
}

// NewStore reads shaders from dir using the manifest file name inside it.
func NewStore(dir, manifest string, logger *core.Logger) *Store {
	return &Store{
		dir:      dir,
		manifest: manifest,
		logger:   logger,
		shaders:  make(map[string]*Shader),
		meshes:   make(map[string]*Mesh),
	}
}

func (s *Store) Dir() string {
	return s.dir
}

// LoadAll reads every shader listed in the manifest and registers the
// built-in meshes.
func (s *Store) LoadAll() error {
	if err := s.loadShaders(); err != nil {
		return err
	}
	s.loadModels()
	return nil
}

func (s *Store) loadShaders() error {
	path := filepath.Join(s.dir, s.manifest)
	lines, err := ReadLines(path)
	if err != nil {
		s.logger.Error("Could not open file %s", path)
		return err
	}
	entries, err := ParseManifest(lines)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	shaders := make(map[string]*Shader, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		p := filepath.Join(s.dir, e.File)
		code, err := ReadBytes(p)
		if err != nil {
			return errors.Wrapf(err, "loading shader %q", e.Name)
		}
		shaders[e.Name] = &Shader{Name: e.Name, Path: p, Code: code}
		names = append(names, e.Name)
		s.logger.Debug("Loaded shader %s from %s (%d bytes)", e.Name, p, len(code))
	}

	s.mu.Lock()
	s.shaders = shaders
	s.shaderNames = names
	s.mu.Unlock()
	s.logger.Info("Loaded %d shaders from %s", len(names), path)
	return nil
}

// loadModels registers missing built-ins. Existing entries are kept so that
// outstanding handles still count against them.
func (s *Store) loadModels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range []*Mesh{rectangleMesh(), triangleMesh()} {
		if _, ok := s.meshes[m.Name]; !ok {
			s.meshes[m.Name] = m
		}
	}
}

// AddMesh registers a mesh next to the built-in ones. Names are unique.
func (s *Store) AddMesh(m *Mesh) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meshes[m.Name]; ok {
		return errors.Newf("mesh %q already registered", m.Name)
	}
	s.meshes[m.Name] = m
	return nil
}

// Shader returns a copy of the byte code registered under name.
func (s *Store) Shader(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shaders[name]
	if !ok {
		return nil, errors.Wrapf(core.ErrResourceNotFound, "shader %q", name)
	}
	return slices.Clone(sh.Code), nil
}

// MustShader is Shader for names known to be in the manifest. An unknown name
// is a programming error: it is logged as critical and panics.
func (s *Store) MustShader(name string) []byte {
	b, err := s.Shader(name)
	if err != nil {
		s.logger.Critical(err.Error())
		panic(err)
	}
	return b
}

// ShaderByPath maps a file path back to its manifest name.
func (s *Store) ShaderByPath(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.shaderNames {
		if filepath.Clean(s.shaders[name].Path) == filepath.Clean(path) {
			return name, true
		}
	}
	return "", false
}

// Model looks up a mesh and takes a usage count on it. The caller must
// Release the handle once the data has been consumed.
func (s *Store) Model(name string) (*ModelHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[name]
	if !ok {
		return nil, errors.Wrapf(core.ErrResourceNotFound, "model %q", name)
	}
	return newModelHandle(m), nil
}

// MustModel is Model for built-in names. An unknown name is logged as
// critical and panics.
func (s *Store) MustModel(name string) *ModelHandle {
	h, err := s.Model(name)
	if err != nil {
		s.logger.Critical(err.Error())
		panic(err)
	}
	return h
}

// UsageCount reports the outstanding handles on a mesh, or -1 if unknown.
func (s *Store) UsageCount(name string) int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[name]
	if !ok {
		return -1
	}
	return m.usage.Load()
}

// Unload drops all shaders and meshes. It refuses while any mesh handle is
// still held.
func (s *Store) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, m := range s.meshes {
		if n := m.usage.Load(); n > 0 {
			return errors.Wrapf(core.ErrResourceInUse, "model %q has %d handles", name, n)
		}
	}
	s.shaders = make(map[string]*Shader)
	s.meshes = make(map[string]*Mesh)
	s.shaderNames = nil
	s.logger.Info("Resources unloaded.")
	return nil
}
