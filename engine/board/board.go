// Package board draws the crowd one billboard per entity with raylib. It is the non-instanced
// counterpart of the batcher: every entity owns a Board that the crowd updates through
// crowd.BoardConsumer, and the Stage draws each board with its own DrawBillboardRec call.
package board

import (
	"image/color"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/crowd"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Board is a single camera-facing sprite.
type Board struct {
	rect      common.Rect
	placement common.Mat4
	texture   *animation.Texture
}

var _ crowd.Board = &Board{}

// SetRect sets the normalized sprite rectangle.
func (b *Board) SetRect(rect common.Rect) {
	b.rect = rect
}

// SetTexture sets the sprite sheet.
func (b *Board) SetTexture(tex *animation.Texture) {
	b.texture = tex
}

// SetPlacement sets the world transform. Only the translation is used: raylib billboards always
// face the camera.
func (b *Board) SetPlacement(m common.Mat4) {
	b.placement = m
}

// Rect returns the current sprite rectangle.
func (b *Board) Rect() common.Rect {
	return b.rect
}

// Texture returns the sprite sheet, or nil.
func (b *Board) Texture() *animation.Texture {
	return b.texture
}

// Position returns the translation of the placement.
func (b *Board) Position() rl.Vector3 {
	return rl.NewVector3(b.placement[12], b.placement[13], b.placement[14])
}

// Source converts the normalized rectangle to texture pixels.
//
// Parameters:
//   - width, height: texture size in pixels
//
// Returns:
//   - rl.Rectangle: the source rectangle for DrawBillboardRec
func (b *Board) Source(width, height int32) rl.Rectangle {
	w, h := float32(width), float32(height)
	return rl.NewRectangle(b.rect.X*w, b.rect.Y*h, b.rect.W*w, b.rect.H*h)
}

// toColor converts a float RGBA color to 8-bit channels.
func toColor(c [4]float32) color.RGBA {
	ch := func(v float32) uint8 {
		return uint8(max(0, min(v, 1))*255 + 0.5)
	}
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}
