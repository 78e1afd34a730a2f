// Command export writes the test textures as PNG files, together with a
// JSON summary of their solid pixel bounds, so that they can be loaded by
// other tools.  Run from the module root directory.
package main

import (
	"encoding/json"
	"flag"
	"image"
	"image/png"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"seehuhn.de/go/occlusion"
	"seehuhn.de/go/occlusion/testcases"
)

func main() {
	outDir := flag.String("o", "testdata/textures", "output directory")
	threshold := flag.Float64("threshold", 0, "alpha threshold in [0, 1)")
	flag.Parse()

	opts := occlusion.AlphaMapOptions{KeepPixels: true, Threshold: *threshold}
	if err := opts.Validate(); err != nil {
		panic(err)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		panic(err)
	}

	var out struct {
		Threshold float64           `json:"threshold"`
		Textures  []jsonTestTexture `json:"textures"`
	}
	out.Threshold = *threshold

	for _, category := range slices.Sorted(maps.Keys(testcases.All)) {
		for _, tc := range testcases.All[category] {
			name := category + "_" + tc.Name
			img := tc.Image()
			if err := writePNG(filepath.Join(*outDir, name+".png"), img); err != nil {
				panic(err)
			}

			m := occlusion.BuildAlphaMap(img, opts)
			jt := jsonTestTexture{
				Name:   name,
				File:   name + ".png",
				Width:  tc.Width,
				Height: tc.Height,
				Empty:  m.Empty(),
			}
			if !m.Empty() {
				b := m.Bounds
				jt.Bounds = []int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
				for _, v := range m.Pixels() {
					if v != 0 {
						jt.SolidPixels++
					}
				}
			}
			out.Textures = append(out.Textures, jt)
		}
	}

	f, err := os.Create(filepath.Join(*outDir, "textures.json"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}

type jsonTestTexture struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Empty       bool   `json:"empty"`
	Bounds      []int  `json:"bounds,omitempty"` // x0, y0, x1, y1
	SolidPixels int    `json:"solid_pixels"`
}

func writePNG(fname string, img image.Image) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
