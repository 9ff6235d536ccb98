package game_object

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

var objectCount atomic.Uint64

type gameObject struct {
	mu *sync.RWMutex

	id      uint64
	label   string
	enabled atomic.Bool

	layer    renderer.Layer
	queue    renderer.Queue
	material material.Material
	rect     common.Rect
	tint     [4]float32

	position common.Vec3
	rotation common.Vec3
	scale    common.Vec3
}

// GameObject is an individually placed quad in a scene: background scenery, a single character
// board or a ground shadow. Crowds are not made of game objects; they are drawn by the batcher.
type GameObject interface {
	// ID returns the object's unique identifier.
	ID() uint64

	// Label returns the debug label.
	Label() string

	// Enabled returns whether this object is drawn.
	Enabled() bool

	// SetEnabled shows or hides the object.
	SetEnabled(enabled bool)

	// Layer returns the render layer.
	Layer() renderer.Layer

	// Position returns the world position of the quad centre.
	Position() common.Vec3

	// Rotation returns the Euler rotation in radians.
	Rotation() common.Vec3

	// Scale returns the quad scale.
	Scale() common.Vec3

	// SetPosition moves the object.
	SetPosition(p common.Vec3)

	// SetRotation sets the Euler rotation in radians (Y * X * Z order).
	SetRotation(r common.Vec3)

	// SetScale sets the quad scale.
	SetScale(s common.Vec3)

	// SetRect sets the texture rectangle.
	SetRect(r common.Rect)

	// Renderable builds the quad as the renderer draws it: the model matrix from the current
	// transform and a bounding sphere enclosing the scaled unit quad.
	//
	// Returns:
	//   - renderer.Renderable: the quad
	Renderable() renderer.Renderable
}

var _ GameObject = &gameObject{}

// NewGameObject creates an enabled, unit-scaled character-layer quad at the origin.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - GameObject: the object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		mu:    &sync.RWMutex{},
		id:    objectCount.Add(1),
		layer: renderer.LayerCharacter,
		queue: renderer.QueueOpaque,
		rect:  common.Rect{W: 1, H: 1},
		tint:  [4]float32{1, 1, 1, 1},
		scale: common.Vec3{1, 1, 1},
	}
	g.enabled.Store(true)
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Label() string {
	return g.label
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Layer() renderer.Layer {
	return g.layer
}

func (g *gameObject) Position() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) Rotation() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation
}

func (g *gameObject) Scale() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) SetPosition(p common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = p
}

func (g *gameObject) SetRotation(r common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = r
}

func (g *gameObject) SetScale(s common.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = s
}

func (g *gameObject) SetRect(r common.Rect) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rect = r
}

func (g *gameObject) Renderable() renderer.Renderable {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r := renderer.Renderable{
		Label:    g.label,
		Layer:    g.layer,
		Queue:    g.queue,
		Material: g.material,
		Rect:     g.rect,
		Tint:     g.tint,
		Center:   g.position,
	}
	common.BuildModelMatrix(r.Transform[:], g.position, g.rotation, g.scale)

	sx, sy := abs32(g.scale[0]), abs32(g.scale[1])
	r.Radius = 0.5 * float32(math.Sqrt(float64(sx*sx+sy*sy)))
	return r
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
