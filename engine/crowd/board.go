package crowd

import (
	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/Carmen-Shannon/oxy-crowd/engine/animation"
	"github.com/Carmen-Shannon/oxy-crowd/engine/entity_store"
)

// Board is a single billboard drawn by a leaf renderer outside the crowd.
type Board interface {
	// SetRect sets the normalized texture rectangle shown by the board.
	SetRect(rect common.Rect)
	// SetTexture sets the sprite sheet the rectangle refers to.
	SetTexture(tex *animation.Texture)
	// SetPlacement sets the board's camera-facing world transform.
	SetPlacement(m common.Mat4)
}

// BoardConsumer pushes every entity's rectangle and placement to its board once per frame.
type BoardConsumer struct {
	boards []Board
}

var _ Consumer = &BoardConsumer{}

// NewBoardConsumer binds boards to entities by index and assigns the sprite sheet once.
//
// Parameters:
//   - boards: one board per entity; board i shows entity i
//   - tex: the shared sprite sheet (nil leaves the boards' textures untouched)
//
// Returns:
//   - *BoardConsumer: the consumer
func NewBoardConsumer(boards []Board, tex *animation.Texture) *BoardConsumer {
	if tex != nil {
		for _, b := range boards {
			b.SetTexture(tex)
		}
	}
	return &BoardConsumer{boards: boards}
}

// Consume copies the previous frame's results onto the boards.
func (c *BoardConsumer) Consume(store *entity_store.Store) {
	rects := store.Rects()
	placements := store.Placements()
	n := min(len(c.boards), len(rects))
	for i := 0; i < n; i++ {
		c.boards[i].SetRect(rects[i])
		c.boards[i].SetPlacement(placements[i])
	}
}
