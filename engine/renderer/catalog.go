package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// ResourceCatalog maps names to materials and meshes. Entries are never
// removed, so the pointers it returns stay valid for its whole lifetime.
type ResourceCatalog struct {
	mu        sync.RWMutex
	materials map[string]*metadata.Material
	meshes    map[string]*metadata.Mesh
}

func NewResourceCatalog() *ResourceCatalog {
	return &ResourceCatalog{
		materials: make(map[string]*metadata.Material),
		meshes:    make(map[string]*metadata.Mesh),
	}
}

// RegisterMaterial stores a new material. Registering a name twice is an
// error; use ReplaceMaterial to overwrite on purpose.
func (rc *ResourceCatalog) RegisterMaterial(name string, pipeline, layout metadata.GPUHandle, delivery metadata.ObjectTransformDelivery) (*metadata.Material, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.materials[name]; exists {
		return nil, fmt.Errorf("material `%s`: %w", name, core.ErrDuplicateResource)
	}
	m := newMaterial(name, pipeline, layout, delivery)
	rc.materials[name] = m
	core.LogDebug("material `%s` registered (%s, %s)", name, m.ID, delivery)
	return m, nil
}

// ReplaceMaterial overwrites the material stored under name in place. Objects
// holding the previous pointer observe the new pipeline.
func (rc *ResourceCatalog) ReplaceMaterial(name string, pipeline, layout metadata.GPUHandle, delivery metadata.ObjectTransformDelivery) *metadata.Material {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if m, exists := rc.materials[name]; exists {
		core.LogWarn("material `%s` (%s) replaced", name, m.ID)
		m.Pipeline = pipeline
		m.Layout = layout
		m.Delivery = delivery
		return m
	}
	m := newMaterial(name, pipeline, layout, delivery)
	rc.materials[name] = m
	return m
}

func (rc *ResourceCatalog) FindMaterial(name string) (*metadata.Material, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	m, ok := rc.materials[name]
	return m, ok
}

// RegisterMesh stores mesh under name. The mesh is expected to be uploaded.
func (rc *ResourceCatalog) RegisterMesh(name string, mesh *metadata.Mesh) (*metadata.Mesh, error) {
	if mesh == nil {
		return nil, fmt.Errorf("mesh `%s` is nil", name)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.meshes[name]; exists {
		return nil, fmt.Errorf("mesh `%s`: %w", name, core.ErrDuplicateResource)
	}
	if mesh.ID == uuid.Nil {
		mesh.ID = uuid.New()
	}
	mesh.Name = name
	rc.meshes[name] = mesh
	core.LogDebug("mesh `%s` registered (%s, %d vertices)", name, mesh.ID, mesh.VertexCount())
	return mesh, nil
}

// ReplaceMesh copies mesh into the entry stored under name, or registers it.
func (rc *ResourceCatalog) ReplaceMesh(name string, mesh *metadata.Mesh) (*metadata.Mesh, error) {
	if mesh == nil {
		return nil, fmt.Errorf("mesh `%s` is nil", name)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if existing, exists := rc.meshes[name]; exists {
		core.LogWarn("mesh `%s` (%s) replaced", name, existing.ID)
		existing.Vertices = mesh.Vertices
		existing.VertexBuffer = mesh.VertexBuffer
		return existing, nil
	}
	if mesh.ID == uuid.Nil {
		mesh.ID = uuid.New()
	}
	mesh.Name = name
	rc.meshes[name] = mesh
	return mesh, nil
}

func (rc *ResourceCatalog) FindMesh(name string) (*metadata.Mesh, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	m, ok := rc.meshes[name]
	return m, ok
}

// Materials returns the registered material names, sorted
func (rc *ResourceCatalog) Materials() []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	names := make([]string, 0, len(rc.materials))
	for name := range rc.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Meshes returns the registered mesh names, sorted
func (rc *ResourceCatalog) Meshes() []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	names := make([]string, 0, len(rc.meshes))
	for name := range rc.meshes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newMaterial(name string, pipeline, layout metadata.GPUHandle, delivery metadata.ObjectTransformDelivery) *metadata.Material {
	return &metadata.Material{
		ID:       uuid.New(),
		Name:     name,
		Pipeline: pipeline,
		Layout:   layout,
		Delivery: delivery,
	}
}
