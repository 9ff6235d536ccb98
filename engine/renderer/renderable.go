package renderer

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

// Layer groups scene renderables by the pass that draws them.
type Layer int

const (
	// LayerBackground is opaque scenery drawn before any character.
	LayerBackground Layer = iota
	// LayerCharacter is a character billboard placed individually in the scene.
	LayerCharacter
	// LayerShadow is a flattened ground shadow.
	LayerShadow
)

// Queue is the transparency queue of a renderable.
type Queue int

const (
	// QueueOpaque renderables take part in the depth prepass.
	QueueOpaque Queue = iota
	// QueueTransparent renderables are only drawn blended.
	QueueTransparent
)

// Renderable is a single quad owned by the scene.
type Renderable struct {
	Label     string
	Layer     Layer
	Queue     Queue
	Material  material.Material
	Transform common.Mat4
	Rect      common.Rect
	Tint      [4]float32

	// Center and Radius bound the renderable for culling and depth sorting.
	Center common.Vec3
	Radius float32
}

// SceneView is what the driver needs from a scene.
type SceneView interface {
	// Cull appends every renderable whose bounds intersect frustum to out and returns it with the
	// number of enabled renderables left out.
	Cull(frustum common.Frustum, out []Renderable) ([]Renderable, int)

	// DirectionalLight returns the first enabled directional light, or nil.
	DirectionalLight() light.Light

	// Ambient returns the ambient light color.
	Ambient() [3]float32
}
