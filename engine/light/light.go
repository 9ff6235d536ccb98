package light

import "math"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional is an infinitely distant light with parallel rays (sun).
	LightTypeDirectional LightType = iota

	// LightTypePoint emits in all directions from a position, attenuated by range.
	LightTypePoint

	// LightTypeSpot emits a cone from a position along a direction.
	LightTypeSpot
)

// String returns the light type name.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   [3]float32
	direction  [3]float32
	color      [3]float32
	intensity  float32
	lightRange float32
	enabled    bool
}

// Light is a scene light source. Billboard shading only consumes the first enabled directional
// light; point and spot lights are kept in the scene for consumers that need them.
type Light interface {
	// Type returns the kind of light.
	Type() LightType

	// Position returns the world-space position (point and spot lights).
	Position() [3]float32

	// Direction returns the normalized direction the light travels along.
	Direction() [3]float32

	// Color returns the linear RGB color.
	Color() [3]float32

	// Intensity returns the color multiplier.
	Intensity() float32

	// Range returns the attenuation range (point and spot lights).
	Range() float32

	// Enabled reports whether the light contributes to shading.
	Enabled() bool

	// SetDirection normalizes and sets the light direction.
	SetDirection(x, y, z float32)

	// SetColor sets the linear RGB color.
	SetColor(r, g, b float32)

	// SetIntensity sets the color multiplier.
	SetIntensity(intensity float32)

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a white light of the given type pointing straight down.
//
// Parameters:
//   - lightType: the kind of light
//   - opts: functional options
//
// Returns:
//   - Light: the light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  [3]float32{0, -1, 0},
		color:      [3]float32{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Globals are the per-camera directional lighting parameters pushed to the billboard shader.
type Globals struct {
	// ToLight is the normalized direction from a surface towards the light.
	ToLight [3]float32
	// Color is the light color premultiplied by its intensity.
	Color [3]float32
	// Ambient is the ambient term added to every fragment.
	Ambient [3]float32
	// Enabled is false when the scene has no directional light.
	Enabled bool
}

// DirectionalGlobals converts a directional light into shader globals. A nil light yields
// globals with only the ambient term.
//
// Parameters:
//   - l: the directional light, or nil
//   - ambient: the ambient color
//
// Returns:
//   - Globals: the shader parameters
func DirectionalGlobals(l Light, ambient [3]float32) Globals {
	g := Globals{Ambient: ambient}
	if l == nil || !l.Enabled() {
		return g
	}
	d := l.Direction()
	c := l.Color()
	i := l.Intensity()
	g.ToLight = [3]float32{-d[0], -d[1], -d[2]}
	g.Color = [3]float32{c[0] * i, c[1] * i, c[2] * i}
	g.Enabled = true
	return g
}

func normalize3(x, y, z float32) [3]float32 {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return [3]float32{0, -1, 0}
	}
	return [3]float32{x / l, y / l, z / l}
}
