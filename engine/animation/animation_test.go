package animation

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

func TestFrameIndex(t *testing.T) {
	tests := []struct {
		name string
		i    int
		t    float64
		l    int
		dir  int
		want int
	}{
		{"reference case", 7, 2.0, 15, 3, 52},
		{"origin", 0, 0, 15, 0, 0},
		{"wraps inside block", 0, 0.62, 15, 0, 0},  // floor(15.5) % 15
		{"last frame of last block", 0, 0.58, 15, 7, 14 + 105},
		{"phase offset only", 5, 0, 4, 1, 1 + 4},  // floor(1.5) % 4 + 4
	}

	for _, tt := range tests {
		if got := FrameIndex(tt.i, tt.t, tt.l, tt.dir); got != tt.want {
			t.Errorf("%s: FrameIndex(%d, %v, %d, %d) = %d, want %d", tt.name, tt.i, tt.t, tt.l, tt.dir, got, tt.want)
		}
	}
}

func TestFrameIndexStaysInsideDirectionBlock(t *testing.T) {
	const l = 15
	for dir := 0; dir < DirectionCount; dir++ {
		for i := 0; i < 50; i++ {
			for step := 0; step < 40; step++ {
				idx := FrameIndex(i, float64(step)*0.137, l, dir)
				if idx < dir*l || idx >= (dir+1)*l {
					t.Fatalf("FrameIndex(%d, %v, %d, %d) = %d outside block", i, float64(step)*0.137, l, dir, idx)
				}
			}
		}
	}
}

func TestNewFrameTableValidatesLength(t *testing.T) {
	rects := make([]common.Rect, 15*8)
	if _, err := NewFrameTable(rects, 15, nil); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	if _, err := NewFrameTable(rects[:119], 15, nil); !errors.Is(err, ErrTableMismatch) {
		t.Errorf("short table err = %v, want ErrTableMismatch", err)
	}
	if _, err := NewFrameTable(rects, 14, nil); !errors.Is(err, ErrTableMismatch) {
		t.Errorf("wrong length err = %v, want ErrTableMismatch", err)
	}
	if _, err := NewFrameTable(rects, 0, nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("zero length err = %v, want ErrInvalidLength", err)
	}
}

func TestSelectUsesFrameIndex(t *testing.T) {
	rects := make([]common.Rect, 4*8)
	for i := range rects {
		rects[i] = common.Rect{X: float32(i)}
	}
	table, err := NewFrameTable(rects, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	rects[0].X = 99 // the table keeps its own copy

	if got := table.Select(7, 2.0, 3); got.X != float32(FrameIndex(7, 2.0, 4, 3)) {
		t.Errorf("Select = %+v, want index %d", got, FrameIndex(7, 2.0, 4, 3))
	}
	if table.Rect(0).X != 0 {
		t.Error("table aliases the caller's slice")
	}
}

const atlasCSV = `name,x,y,width,height
walk_01,32,0,32,64
other_00,0,64,32,64
walk_00,0,0,32,64
walk_02,64,0,32,64
`

func TestLoadAtlasFiltersSortsAndNormalizes(t *testing.T) {
	rects, err := LoadAtlas(strings.NewReader(atlasCSV), "walk_", 128, 128)
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	want := []common.Rect{
		{X: 0, Y: 0, W: 0.25, H: 0.5},
		{X: 0.25, Y: 0, W: 0.25, H: 0.5},
		{X: 0.5, Y: 0, W: 0.25, H: 0.5},
	}
	if len(rects) != len(want) {
		t.Fatalf("got %d rects, want %d", len(rects), len(want))
	}
	for i := range want {
		if rects[i] != want[i] {
			t.Errorf("rect %d = %+v, want %+v", i, rects[i], want[i])
		}
	}

	if _, err := LoadAtlas(strings.NewReader(atlasCSV), "run_", 128, 128); !errors.Is(err, ErrEmptyAtlas) {
		t.Errorf("unknown prefix err = %v, want ErrEmptyAtlas", err)
	}
}

func TestGenerateSheetBuildsValidTable(t *testing.T) {
	tex, records := GenerateSheet("crowd", "chara_", 16, 32, 6)
	if tex.Width != 16*6 || tex.Height != 32*8 {
		t.Fatalf("sheet size %dx%d", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != int(tex.Width*tex.Height*4) {
		t.Fatalf("pixel buffer %d bytes", len(tex.Pixels))
	}

	rects, err := NormalizeRecords(records, "chara_", tex.Width, tex.Height)
	if err != nil {
		t.Fatal(err)
	}
	table, err := NewFrameTable(rects, 6, tex)
	if err != nil {
		t.Fatalf("generated atlas rejected: %v", err)
	}
	// Row d of the sheet must be direction block d of the table.
	if r := table.Rect(3*6 + 2); r.Y != 3.0/8 || r.X != 2.0/6 {
		t.Errorf("direction 3 frame 2 = %+v", r)
	}
}
