package animation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-crowd/common"
	"github.com/gocarina/gocsv"
)

// ErrEmptyAtlas is returned when no sprite in an atlas matches the requested prefix.
var ErrEmptyAtlas = errors.New("animation: no sprites match the atlas prefix")

// SpriteRecord is one row of a sprite atlas CSV: a named pixel rectangle inside the sheet.
type SpriteRecord struct {
	Name   string  `csv:"name"`
	X      float32 `csv:"x"`
	Y      float32 `csv:"y"`
	Width  float32 `csv:"width"`
	Height float32 `csv:"height"`
}

// LoadAtlas reads a sprite atlas CSV (header name,x,y,width,height in pixels) and returns the
// normalized rectangles of every sprite whose name starts with prefix, ordered by name.
//
// Parameters:
//   - r: the CSV stream
//   - prefix: sprite name prefix selecting one character's frames
//   - texWidth, texHeight: sprite sheet size in pixels
//
// Returns:
//   - []common.Rect: normalized rectangles in name order
//   - error: parse error, or ErrEmptyAtlas when nothing matches
func LoadAtlas(r io.Reader, prefix string, texWidth, texHeight uint32) ([]common.Rect, error) {
	var records []SpriteRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parsing sprite atlas: %w", err)
	}
	return NormalizeRecords(records, prefix, texWidth, texHeight)
}

// LoadAtlasFile is LoadAtlas over a file on disk.
func LoadAtlasFile(path, prefix string, texWidth, texHeight uint32) ([]common.Rect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sprite atlas: %w", err)
	}
	defer f.Close()
	return LoadAtlas(f, prefix, texWidth, texHeight)
}

// NormalizeRecords filters records by prefix, sorts them by name and divides every rectangle by
// the sheet size.
func NormalizeRecords(records []SpriteRecord, prefix string, texWidth, texHeight uint32) ([]common.Rect, error) {
	if texWidth == 0 || texHeight == 0 {
		return nil, fmt.Errorf("animation: invalid sheet size %dx%d", texWidth, texHeight)
	}

	matched := make([]SpriteRecord, 0, len(records))
	for _, rec := range records {
		if strings.HasPrefix(rec.Name, prefix) {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyAtlas, prefix)
	}
	sort.SliceStable(matched, func(a, b int) bool { return matched[a].Name < matched[b].Name })

	w, h := float32(texWidth), float32(texHeight)
	rects := make([]common.Rect, len(matched))
	for i, rec := range matched {
		rects[i] = common.Rect{X: rec.X / w, Y: rec.Y / h, W: rec.Width / w, H: rec.Height / h}
	}
	return rects, nil
}
