package window

import "testing"

func TestWindowOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []WindowBuilderOption
		wantW   int
		wantH   int
		wantMax [2]int
	}{
		{name: "defaults", wantW: 1280, wantH: 720},
		{name: "size", opts: []WindowBuilderOption{WithSize(800, 600)}, wantW: 800, wantH: 600},
		{name: "non-positive size keeps default", opts: []WindowBuilderOption{WithSize(0, -1)}, wantW: 1280, wantH: 720},
		{
			name:    "max below min is raised",
			opts:    []WindowBuilderOption{WithMinSize(400, 300), WithMaxSize(100, 100)},
			wantW:   1280,
			wantH:   720,
			wantMax: [2]int{400, 300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.opts...)
			if w.Width() != tt.wantW || w.Height() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", w.Width(), w.Height(), tt.wantW, tt.wantH)
			}
			if got := [2]int{w.maxWidth, w.maxHeight}; got != tt.wantMax {
				t.Errorf("max = %v, want %v", got, tt.wantMax)
			}
		})
	}
}

func TestResizedNotifies(t *testing.T) {
	w := newEngineWindow(WithTitle("t"), WithResizable(false))
	if w.title != "t" || w.resizable {
		t.Fatalf("options not applied: title=%q resizable=%v", w.title, w.resizable)
	}

	var gotW, gotH int
	w.SetResizeCallback(func(width, height int) { gotW, gotH = width, height })

	w.resized(0, 400)
	if gotW != 0 || w.Width() != 1280 {
		t.Fatalf("zero-sized resize must be ignored (minimized window)")
	}
	w.resized(640, 480)
	if gotW != 640 || gotH != 480 || w.Width() != 640 || w.Height() != 480 {
		t.Errorf("resize = %dx%d (stored %dx%d), want 640x480", gotW, gotH, w.Width(), w.Height())
	}
}

func TestUnopenedWindow(t *testing.T) {
	w := newEngineWindow()
	if w.IsRunning() {
		t.Error("unopened window must not report running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("unopened window must not produce a surface descriptor")
	}
	w.RequestClose()
	if err := w.Close(); err == nil {
		t.Error("Close on an unopened window must fail")
	}
}
