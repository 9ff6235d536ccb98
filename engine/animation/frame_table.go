// Package animation holds the read-only sprite frame table of a billboard crowd and the pure
// frame-selection function used by the simulation chain.
package animation

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

// DirectionCount is the number of camera-relative facing sectors a sprite sheet provides.
const DirectionCount = 8

const (
	// PhaseStep offsets the animation phase of consecutive entity indices.
	PhaseStep = 0.3
	// FrameRate is the playback rate in frames per second.
	FrameRate = 25.0
)

var (
	// ErrTableMismatch is returned when the rectangle count is not animationLength * DirectionCount.
	ErrTableMismatch = errors.New("animation: frame table length does not match animation length")
	// ErrInvalidLength is returned for a non-positive animation length.
	ErrInvalidLength = errors.New("animation: animation length must be positive")
)

// FrameTable maps (direction sector, playback frame) to a normalized texture rectangle.
// Direction d occupies the block [d*L, (d+1)*L).
type FrameTable struct {
	rects           []common.Rect
	animationLength int
	texture         *Texture
}

// NewFrameTable validates and copies the frame rectangles.
//
// Parameters:
//   - rects: the normalized rectangles, DirectionCount blocks of animationLength frames
//   - animationLength: frames per direction
//   - texture: the sprite sheet the rectangles refer to (may be nil for headless use)
//
// Returns:
//   - *FrameTable: the immutable table
//   - error: ErrInvalidLength or ErrTableMismatch on a configuration mismatch
func NewFrameTable(rects []common.Rect, animationLength int, texture *Texture) (*FrameTable, error) {
	if animationLength <= 0 {
		return nil, ErrInvalidLength
	}
	if len(rects) != animationLength*DirectionCount {
		return nil, fmt.Errorf("%w: %d rects, want %d (%d frames x %d directions)",
			ErrTableMismatch, len(rects), animationLength*DirectionCount, animationLength, DirectionCount)
	}
	owned := make([]common.Rect, len(rects))
	copy(owned, rects)
	return &FrameTable{
		rects:           owned,
		animationLength: animationLength,
		texture:         texture,
	}, nil
}

// Len returns the number of rectangles in the table.
func (t *FrameTable) Len() int {
	return len(t.rects)
}

// AnimationLength returns the number of frames per direction.
func (t *FrameTable) AnimationLength() int {
	return t.animationLength
}

// Texture returns the sprite sheet handle.
func (t *FrameTable) Texture() *Texture {
	return t.texture
}

// Rect returns the rectangle at a flat table index.
func (t *FrameTable) Rect(idx int) common.Rect {
	return t.rects[idx]
}

// Select returns the rectangle entity i shows at elapsed time t while facing sector dir.
func (t *FrameTable) Select(i int, elapsed float64, dir int) common.Rect {
	return t.rects[FrameIndex(i, elapsed, t.animationLength, dir)]
}

// FrameIndex is the stateless frame selection floor(i*PhaseStep + t*FrameRate) mod L + dir*L.
// The modulo is taken before the direction offset so the result always stays inside the
// direction's block.
//
// Parameters:
//   - i: entity index
//   - t: elapsed time in seconds
//   - animationLength: frames per direction (L)
//   - dir: direction sector in [0, DirectionCount)
//
// Returns:
//   - int: flat index into the frame table
func FrameIndex(i int, t float64, animationLength, dir int) int {
	phase := int(math.Floor(float64(i)*PhaseStep + t*FrameRate))
	frame := phase % animationLength
	if frame < 0 {
		frame += animationLength
	}
	return frame + dir*animationLength
}
