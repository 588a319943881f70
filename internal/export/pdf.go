package export

import (
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/iksnae/deskcorder/internal/session"
)

// PDFExporter draws one page per scene.
type PDFExporter struct {
	Options
}

// Export renders the session's scenes as a PDF document
func (e *PDFExporter) Export(l *session.Log, w io.Writer) error {
	width, height := e.size()
	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	p.SetCreator("deskcorder", true)
	p.SetAutoPageBreak(false, 0)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	scenes := Scenes(l, e.Times)
	if len(scenes) == 0 {
		p.AddPage()
	}
	for _, sc := range scenes {
		p.AddPage()
		drawPDF(p, sc, float64(width), float64(height))
	}
	return p.Output(w)
}

func drawPDF(p *gofpdf.Fpdf, sc Scene, width, height float64) {
	diag := math.Hypot(width, height)
	for _, line := range sc.Lines {
		r, g, b := int(channel(line.Color.R)), int(channel(line.Color.G)), int(channel(line.Color.B))
		p.SetDrawColor(r, g, b)
		p.SetFillColor(r, g, b)
		first := line.Marks[0]
		if len(line.Marks) == 1 {
			p.Circle(first.Pos.X*width, first.Pos.Y*height, math.Max(first.Width*diag/2, 0.25), "F")
			continue
		}
		for i := 1; i < len(line.Marks); i++ {
			from, to := line.Marks[i-1], line.Marks[i]
			p.SetLineWidth(math.Max(to.Width*diag, 0.5))
			p.Line(from.Pos.X*width, from.Pos.Y*height, to.Pos.X*width, to.Pos.Y*height)
		}
	}
}

// Extension returns the file extension for this format
func (e *PDFExporter) Extension() string {
	return "pdf"
}
