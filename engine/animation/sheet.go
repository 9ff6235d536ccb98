package animation

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/Carmen-Shannon/oxy-crowd/common"
)

// GenerateSheet paints a procedural sprite sheet with one row per direction sector and
// animationLength frames per row, and returns it together with its atlas records. It lets the
// demos run without any asset files.
//
// Parameters:
//   - key: backend key for the generated texture
//   - prefix: name prefix given to every sprite record
//   - frameW, frameH: size of one frame in pixels
//   - animationLength: frames per direction
//
// Returns:
//   - *Texture: the generated sheet
//   - []SpriteRecord: pixel rectangles named prefix + "DD_FF"
func GenerateSheet(key, prefix string, frameW, frameH, animationLength int) (*Texture, []SpriteRecord) {
	img := image.NewRGBA(image.Rect(0, 0, frameW*animationLength, frameH*DirectionCount))
	records := make([]SpriteRecord, 0, animationLength*DirectionCount)

	for dir := 0; dir < DirectionCount; dir++ {
		body := directionColor(dir)
		// Sector 4 faces the camera, sector 0 faces away; the head marker slides with the heading.
		angle := float64(dir-4) * math.Pi / 4
		headShift := int(math.Sin(angle) * float64(frameW) * 0.2)

		for frame := 0; frame < animationLength; frame++ {
			ox, oy := frame*frameW, dir*frameH
			cell := image.Rect(ox, oy, ox+frameW, oy+frameH)

			torso := image.Rect(ox+frameW/4, oy+frameH/3, ox+frameW*3/4, oy+frameH*3/4)
			draw.Draw(img, torso, &image.Uniform{C: body}, image.Point{}, draw.Src)

			hx := ox + frameW/2 + headShift
			head := image.Rect(hx-frameW/6, oy+frameH/8, hx+frameW/6, oy+frameH/3)
			draw.Draw(img, head.Intersect(cell), &image.Uniform{C: color.RGBA{R: 240, G: 210, B: 180, A: 255}}, image.Point{}, draw.Src)

			// Legs swing with the frame phase.
			swing := int(math.Sin(2*math.Pi*float64(frame)/float64(animationLength)) * float64(frameW) / 8)
			leg := color.RGBA{R: 40, G: 40, B: 60, A: 255}
			left := image.Rect(ox+frameW/3+swing, oy+frameH*3/4, ox+frameW/3+swing+frameW/8, oy+frameH-1)
			right := image.Rect(ox+frameW*2/3-swing-frameW/8, oy+frameH*3/4, ox+frameW*2/3-swing, oy+frameH-1)
			draw.Draw(img, left.Intersect(cell), &image.Uniform{C: leg}, image.Point{}, draw.Src)
			draw.Draw(img, right.Intersect(cell), &image.Uniform{C: leg}, image.Point{}, draw.Src)

			records = append(records, SpriteRecord{
				Name:   fmt.Sprintf("%s%02d_%02d", prefix, dir, frame),
				X:      float32(ox),
				Y:      float32(oy),
				Width:  float32(frameW),
				Height: float32(frameH),
			})
		}
	}

	tex := &Texture{
		Key: key,
		TextureStagingData: common.TextureStagingData{
			Pixels: img.Pix,
			Width:  uint32(img.Bounds().Dx()),
			Height: uint32(img.Bounds().Dy()),
		},
		Sampler: pixelArtSampler,
	}
	return tex, records
}

func directionColor(dir int) color.RGBA {
	h := float64(dir) / DirectionCount
	r := 0.5 + 0.5*math.Cos(2*math.Pi*h)
	g := 0.5 + 0.5*math.Cos(2*math.Pi*(h-1.0/3))
	b := 0.5 + 0.5*math.Cos(2*math.Pi*(h-2.0/3))
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
