// Command efield-map renders a characterizer map file as a standalone HTML
// scatter chart: probe positions projected to the XY plane, coloured by
// normalised field magnitude.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nbe-data/mtms.report/internal/efield"
)

var (
	input  = flag.String("in", "", "Map file to render (x y z Ex Ey Ez rows)")
	output = flag.String("out", "efield_map.html", "Output HTML file")
	head   = flag.Int("head", 0, "Keep the first N vectors before striding (0 disables downsampling)")
	stride = flag.Int("stride", 1, "Stride over the remaining vectors when -head is set")
)

var viridisColours = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

func main() {
	flag.Parse()

	if *input == "" {
		log.Fatal("-in is required")
	}

	in, err := os.Open(*input)
	if err != nil {
		log.Fatalf("failed to open map: %v", err)
	}
	fieldMap, err := efield.ReadMap(in)
	in.Close()
	if err != nil {
		log.Fatalf("failed to read map: %v", err)
	}
	if *head > 0 {
		fieldMap = fieldMap.Downsample(*head, *stride)
	}
	if len(fieldMap.Vectors) == 0 {
		log.Fatal("map has no vectors")
	}

	norms := fieldMap.NormalizedNorms()
	data := make([]opts.ScatterData, len(fieldMap.Vectors))
	maxAbs := 0.0
	for i, v := range fieldMap.Vectors {
		x := v.Pos[0] * 1e3
		y := v.Pos[1] * 1e3
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(y)))
		data[i] = opts.ScatterData{Value: []interface{}{x, y, norms[i]}}
	}
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "E-field Map", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Measured E-field Map", Subtitle: fmt.Sprintf("file=%s points=%d", *input, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColours},
		}),
	)
	scatter.AddSeries("efield", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	if err := scatter.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d points)", *output, len(data))
}
