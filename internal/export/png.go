package export

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/iksnae/deskcorder/internal/session"
)

// PNGExporter renders scenes as frames stacked top to bottom in one image.
type PNGExporter struct {
	Options
}

// Export renders the session's scenes as a PNG strip
func (e *PNGExporter) Export(l *session.Log, w io.Writer) error {
	width, height := e.size()
	scenes := Scenes(l, e.Times)
	frames := max(len(scenes), 1)

	img := image.NewRGBA(image.Rect(0, 0, width, height*frames))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	z := vector.NewRasterizer(width, height)
	for i, sc := range scenes {
		frame := img.SubImage(image.Rect(0, i*height, width, (i+1)*height)).(*image.RGBA)
		Render(z, frame, sc)
	}
	return png.Encode(w, img)
}

// Render draws sc onto dst, which must match the rasterizer's size.
func Render(z *vector.Rasterizer, dst *image.RGBA, sc Scene) {
	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()
	diag := math.Hypot(float64(width), float64(height))
	for _, line := range sc.Lines {
		z.Reset(width, height)
		for i, m := range line.Marks {
			x, y := m.Pos.X*float64(width), m.Pos.Y*float64(height)
			r := math.Max(m.Width*diag/2, 0.5)
			disc(z, x, y, r)
			if i > 0 {
				prev := line.Marks[i-1]
				quad(z, prev.Pos.X*float64(width), prev.Pos.Y*float64(height), x, y, r)
			}
		}
		src := image.NewUniform(color.RGBA{
			R: channel(line.Color.R),
			G: channel(line.Color.G),
			B: channel(line.Color.B),
			A: 0xff,
		})
		z.Draw(dst, dst.Bounds(), src, image.Point{})
	}
}

// disc and quad wind the same way so overlapping shapes union instead of
// cancelling.
func disc(z *vector.Rasterizer, cx, cy, r float64) {
	const sides = 16
	z.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < sides; i++ {
		a := -2 * math.Pi * float64(i) / sides
		z.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	z.ClosePath()
}

func quad(z *vector.Rasterizer, x0, y0, x1, y1, r float64) {
	dx, dy := x1-x0, y1-y0
	n := math.Hypot(dx, dy)
	if n == 0 {
		return
	}
	nx, ny := -dy/n*r, dx/n*r
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

// Extension returns the file extension for this format
func (e *PNGExporter) Extension() string {
	return "png"
}
