// Package scene holds everything a frame draws besides the crowds: background and single
// character quads, ground shadows, lights and the cameras looking at them. Entries live in an
// ECS world so the renderer can query them by component.
package scene

import (
	"cmp"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/camera"
	"github.com/Carmen-Shannon/oxy-crowd/engine/game_object"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/mlange-42/ark/ecs"
)

// quad is the component of a drawable entity. Entities added through Add keep their game
// object and are rebuilt from it every cull.
type quad struct {
	renderable renderer.Renderable
	obj        game_object.GameObject
}

// lightSource is the component of a light entity. seq preserves insertion order, which the
// query order of the world does not.
type lightSource struct {
	light light.Light
	seq   uint64
}

// Scene is the registry the renderer driver draws from. It implements renderer.SceneView.
// Thread-safe for concurrent access; the ECS world itself is not, so every query runs under the
// scene lock.
type Scene interface {
	renderer.SceneView

	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently rendered.
	Active() bool

	// SetActive sets whether this scene is rendered.
	SetActive(active bool)

	// Camera returns the primary camera.
	Camera() camera.Camera

	// Cameras returns every camera in render order, the primary first.
	Cameras() []camera.Camera

	// AddCamera appends a secondary camera.
	AddCamera(cam camera.Camera)

	// Add registers a game object. Its renderable is rebuilt from the object on every cull, so
	// moving the object moves the quad.
	//
	// Parameters:
	//   - obj: the object
	//
	// Returns:
	//   - ecs.Entity: the handle used by Remove
	Add(obj game_object.GameObject) ecs.Entity

	// AddRenderable registers a static quad.
	//
	// Parameters:
	//   - r: the quad
	//
	// Returns:
	//   - ecs.Entity: the handle used by Remove
	AddRenderable(r renderer.Renderable) ecs.Entity

	// AddLight registers a light.
	AddLight(l light.Light) ecs.Entity

	// Remove deletes a quad or light.
	//
	// Returns:
	//   - bool: false if the entity was not alive
	Remove(e ecs.Entity) bool

	// Count returns the number of registered quads.
	Count() int

	// Lights returns the registered lights in insertion order.
	Lights() []light.Light

	// SetAmbient sets the ambient light color.
	SetAmbient(c [3]float32)

	// SetCullingDisabled makes Cull return every enabled quad.
	SetCullingDisabled(disabled bool)

	// Clear removes every quad and light.
	Clear()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cameras []camera.Camera

	world       *ecs.World
	quads       *ecs.Map1[quad]
	lights      *ecs.Map1[lightSource]
	quadFilter  *ecs.Filter1[quad]
	lightFilter *ecs.Filter1[lightSource]
	nextSeq     uint64

	ambient         [3]float32
	cullingDisabled bool
}

var _ Scene = &scene{}

// NewScene creates an active scene viewed through cam.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the primary camera (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	world := ecs.NewWorld()
	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		active:      true,
		cameras:     []camera.Camera{cam},
		world:       world,
		quads:       ecs.NewMap1[quad](world),
		lights:      ecs.NewMap1[lightSource](world),
		quadFilter:  ecs.NewFilter1[quad](world),
		lightFilter: ecs.NewFilter1[lightSource](world),
		ambient:     [3]float32{0.25, 0.25, 0.25},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameras[0]
}

func (s *scene) Cameras() []camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]camera.Camera, len(s.cameras))
	copy(out, s.cameras)
	return out
}

func (s *scene) AddCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = append(s.cameras, cam)
}

func (s *scene) Add(obj game_object.GameObject) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quads.NewEntity(&quad{renderable: obj.Renderable(), obj: obj})
}

func (s *scene) AddRenderable(r renderer.Renderable) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quads.NewEntity(&quad{renderable: r})
}

func (s *scene) AddLight(l light.Light) ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.lights.NewEntity(&lightSource{light: l, seq: s.nextSeq})
}

func (s *scene) Remove(e ecs.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.world.Alive(e) {
		return false
	}
	s.world.RemoveEntity(e)
	return true
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	query := s.quadFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

func (s *scene) Lights() []light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sources []lightSource
	query := s.lightFilter.Query()
	for query.Next() {
		sources = append(sources, *query.Get())
	}
	slices.SortFunc(sources, func(a, b lightSource) int {
		return cmp.Compare(a.seq, b.seq)
	})
	out := make([]light.Light, len(sources))
	for i, src := range sources {
		out[i] = src.light
	}
	return out
}

func (s *scene) SetAmbient(c [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = c
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dead []ecs.Entity
	query := s.quadFilter.Query()
	for query.Next() {
		dead = append(dead, query.Entity())
	}
	lq := s.lightFilter.Query()
	for lq.Next() {
		dead = append(dead, lq.Entity())
	}
	for _, e := range dead {
		s.world.RemoveEntity(e)
	}
}

// Cull appends every enabled quad whose bounding sphere intersects frustum and counts the enabled
// quads it rejected.
func (s *scene) Cull(frustum common.Frustum, out []renderer.Renderable) ([]renderer.Renderable, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	culled := 0
	query := s.quadFilter.Query()
	for query.Next() {
		q := query.Get()
		if q.obj != nil {
			if !q.obj.Enabled() {
				continue
			}
			q.renderable = q.obj.Renderable()
		}
		r := &q.renderable
		if s.cullingDisabled || frustum.ContainsSphere(r.Center, r.Radius) {
			out = append(out, *r)
		} else {
			culled++
		}
	}
	return out, culled
}

// DirectionalLight returns the first enabled directional light by insertion order, or nil.
func (s *scene) DirectionalLight() light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		found light.Light
		best  uint64
	)
	query := s.lightFilter.Query()
	for query.Next() {
		src := query.Get()
		if src.light == nil || src.light.Type() != light.LightTypeDirectional || !src.light.Enabled() {
			continue
		}
		if found == nil || src.seq < best {
			found, best = src.light, src.seq
		}
	}
	return found
}

func (s *scene) Ambient() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}
