package game_object

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithLabel sets the debug label.
func WithLabel(label string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.label = label
	}
}

// WithEnabled sets whether the GameObject is drawn.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithLayer sets the render layer and transparency queue.
//
// Parameters:
//   - layer: background, character or shadow
//   - queue: opaque objects also take part in the depth prepass
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the layer
func WithLayer(layer renderer.Layer, queue renderer.Queue) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.layer = layer
		obj.queue = queue
	}
}

// WithMaterial sets the material the quad is drawn with.
func WithMaterial(m material.Material) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.material = m
	}
}

// WithRect sets the texture rectangle.
func WithRect(r common.Rect) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rect = r
	}
}

// WithTint sets the RGBA tint.
func WithTint(c [4]float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.tint = c
	}
}

// WithPosition sets the initial position.
//
// Parameters:
//   - p: world position of the quad centre
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(p common.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = p
	}
}

// WithRotation sets the initial Euler rotation in radians.
func WithRotation(r common.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = r
	}
}

// WithScale sets the initial scale.
func WithScale(s common.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = s
	}
}
