package batcher

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/renderer/material"
)

// BatcherOption is a functional option applied to a Batcher during construction.
type BatcherOption func(*Batcher)

// WithLabel sets the prefix of the command list and draw command labels.
func WithLabel(label string) BatcherOption {
	return func(b *Batcher) {
		if label != "" {
			b.label = label
		}
	}
}

// WithMaterial sets the material of the depth and main pass commands.
//
// Parameters:
//   - m: the sprite material
//
// Returns:
//   - BatcherOption: a function that applies the material option
func WithMaterial(m material.Material) BatcherOption {
	return func(b *Batcher) {
		b.material = m
	}
}

// WithShadowMaterial sets the material of the shadow commands. It defaults to the main material.
func WithShadowMaterial(m material.Material) BatcherOption {
	return func(b *Batcher) {
		b.shadowMaterial = m
	}
}

// WithShadowTemplate replaces the shadow placement template. Only its X and Z translation are
// overwritten per instance.
func WithShadowTemplate(m common.Mat4) BatcherOption {
	return func(b *Batcher) {
		b.shadowTemplate = m
	}
}

// WithShadowTint sets the RGBA color of the shadows.
func WithShadowTint(c [4]float32) BatcherOption {
	return func(b *Batcher) {
		b.shadowTint = c
	}
}

// WithShadows toggles the shadow pass. Without it no shadow scratch is allocated.
func WithShadows(enabled bool) BatcherOption {
	return func(b *Batcher) {
		b.shadows = enabled
	}
}
