// seehuhn.de/go/occlusion - pixel-accurate occlusion for overhead tiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command genpdf draws the alpha maps of the test textures for visual
// inspection.  For every test case it writes a PDF showing the solid
// pixels, the solid bounds and the sample points of a token standing in
// the middle of the tile.  If Ghostscript is installed, the PDFs are also
// rendered to PNG.
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics/color"

	"seehuhn.de/go/occlusion"
	"seehuhn.de/go/occlusion/testcases"
)

func main() {
	outDir := flag.String("o", "testdata/alphamaps", "output directory")
	render := flag.Bool("png", true, "render the PDFs with Ghostscript")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		panic(err)
	}

	for _, category := range slices.Sorted(maps.Keys(testcases.All)) {
		for _, tc := range testcases.All[category] {
			name := category + "_" + tc.Name
			pdfPath := filepath.Join(*outDir, name+".pdf")
			pngPath := filepath.Join(*outDir, name+".png")

			if err := generatePDF(tc, pdfPath); err != nil {
				panic(fmt.Errorf("%s: %w", name, err))
			}
			if !*render {
				continue
			}
			if err := renderPNG(pdfPath, pngPath); err != nil {
				panic(fmt.Errorf("%s: %w", name, err))
			}
		}
	}
}

func generatePDF(tc testcases.TestCase, pdfPath string) error {
	w, h := float64(tc.Width), float64(tc.Height)
	paper := &pdf.Rectangle{URx: w, URy: h}

	page, err := document.CreateSinglePage(pdfPath, paper, pdf.V1_7, nil)
	if err != nil {
		return err
	}

	page.SetFillColor(color.DeviceGray(0))
	page.Rectangle(0, 0, w, h)
	page.Fill()

	// texture pixels have their origin at the top left
	page.Transform(matrix.Matrix{1, 0, 0, -1, 0, h})

	// the original outline, for comparison with the pixels
	page.SetFillColor(color.DeviceGray(0.25))
	if tc.Path != nil {
		drawPath(page, tc.Path)
		page.Fill()
	}

	m := occlusion.BuildAlphaMap(tc.Image(), occlusion.AlphaMapOptions{KeepPixels: true})
	if m.Empty() {
		return page.Close()
	}

	// solid pixels, one rectangle per horizontal run
	page.SetFillColor(color.DeviceGray(1))
	b := m.Bounds
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := -1
		for x := b.Min.X; x <= b.Max.X; x++ {
			solid := x < b.Max.X && m.Contains(float64(x)+0.5, float64(y)+0.5)
			switch {
			case solid && start < 0:
				start = x
			case !solid && start >= 0:
				page.Rectangle(float64(start), float64(y), float64(x-start), 1)
				start = -1
			}
		}
	}
	page.Fill()

	page.SetStrokeColor(color.DeviceGray(0.5))
	page.SetLineWidth(1)
	page.Rectangle(float64(b.Min.X)+0.5, float64(b.Min.Y)+0.5,
		float64(b.Dx())-1, float64(b.Dy())-1)
	page.Stroke()

	// sample points of a token half the size of the texture
	token := rect.Rect{LLx: w / 4, LLy: h / 4, URx: 3 * w / 4, URy: 3 * h / 4}
	for _, p := range occlusion.SamplePoints(nil, token, occlusion.DefaultOcclusionOptions()) {
		if m.Contains(p.X, p.Y) {
			page.SetFillColor(color.DeviceGray(0.6))
		} else {
			page.SetFillColor(color.DeviceGray(0.8))
		}
		page.Rectangle(p.X-1.5, p.Y-1.5, 3, 3)
		page.Fill()
	}

	return page.Close()
}

func drawPath(page *document.Page, p *path.Data) {
	// PDF has no quadratic segments
	for cmd, pts := range p.Iter().ToCubic() {
		switch cmd {
		case path.CmdMoveTo:
			page.MoveTo(pts[0].X, pts[0].Y)
		case path.CmdLineTo:
			page.LineTo(pts[0].X, pts[0].Y)
		case path.CmdCubeTo:
			page.CurveTo(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, pts[2].X, pts[2].Y)
		case path.CmdClose:
			page.ClosePath()
		}
	}
}

func renderPNG(pdfPath, pngPath string) error {
	cmd := exec.Command(
		"gs", "-q",
		"-sDEVICE=pnggray",
		"-r72",
		"-o", pngPath,
		pdfPath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
