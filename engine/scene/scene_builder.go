package scene

import (
	"github.com/Carmen-Shannon/oxy-crowd/engine/game_object"
	"github.com/Carmen-Shannon/oxy-crowd/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.quads.NewEntity(&quad{renderable: obj.Renderable(), obj: obj})
		}
	}
}

// WithLights adds initial lights in order.
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			s.nextSeq++
			s.lights.NewEntity(&lightSource{light: l, seq: s.nextSeq})
		}
	}
}

// WithAmbient sets the ambient light color.
func WithAmbient(c [3]float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = c
	}
}

// WithCullingDisabled makes Cull return every enabled quad regardless of the frustum.
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}
