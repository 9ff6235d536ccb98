package light

import "testing"

func TestDirectionalGlobals(t *testing.T) {
	ambient := [3]float32{0.2, 0.2, 0.2}
	tests := []struct {
		name  string
		light Light
		want  Globals
	}{
		{
			name:  "no light",
			light: nil,
			want:  Globals{Ambient: ambient},
		},
		{
			name:  "disabled",
			light: NewLight(LightTypeDirectional, WithEnabled(false)),
			want:  Globals{Ambient: ambient},
		},
		{
			name:  "sun",
			light: NewLight(LightTypeDirectional, WithDirection(0, -2, 0), WithColor(1, 0.5, 0.25), WithIntensity(2)),
			want: Globals{
				ToLight: [3]float32{0, 1, 0},
				Color:   [3]float32{2, 1, 0.5},
				Ambient: ambient,
				Enabled: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirectionalGlobals(tt.light, ambient); got != tt.want {
				t.Errorf("DirectionalGlobals = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestZeroDirectionFallsBackToDown(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, 0, 0))
	if l.Direction() != [3]float32{0, -1, 0} {
		t.Errorf("direction = %v", l.Direction())
	}
}
