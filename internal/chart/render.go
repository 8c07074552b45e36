package chart

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render draws the chart with the renderer registered for its kind.
func (c *Chart) Render() components.Charter {
	r, ok := registry[c.Kind]
	if !ok {
		return nil
	}
	return r.render(c)
}

func (c *Chart) globalOpts(axes bool) []charts.GlobalOpts {
	o := []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: c.Subtitle(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "420px",
		}),
	}
	if axes {
		o = append(o,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
			charts.WithXAxisOpts(opts.XAxis{Name: c.XName}),
			charts.WithYAxisOpts(opts.YAxis{Name: c.YName, Type: "value"}),
		)
	}
	return o
}

func renderBar(c *Chart) components.Charter {
	bar := charts.NewBar()
	bar.SetGlobalOptions(c.globalOpts(true)...)

	data := make([]opts.BarData, len(c.Points))
	for i, p := range c.Points {
		data[i] = opts.BarData{Value: p.Y}
	}
	bar.SetXAxis(c.Labels()).AddSeries(c.YName, data)
	return bar
}

func lineChart(c *Chart, area bool) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(c.globalOpts(true)...)

	data := make([]opts.LineData, len(c.Points))
	for i, p := range c.Points {
		data[i] = opts.LineData{Value: p.Y}
	}
	var so []charts.SeriesOpts
	if area {
		so = append(so, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}))
	}
	line.SetXAxis(c.Labels()).AddSeries(c.YName, data, so...)
	return line
}

func renderLine(c *Chart) components.Charter { return lineChart(c, false) }

func renderArea(c *Chart) components.Charter { return lineChart(c, true) }

func renderScatter(c *Chart) components.Charter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(c.globalOpts(true)...)

	data := make([]opts.ScatterData, len(c.Points))
	if c.XNumeric {
		sc.SetGlobalOptions(charts.WithXAxisOpts(opts.XAxis{Name: c.XName, Type: "value"}))
		for i, p := range c.Points {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		sc.AddSeries(c.YName, data)
		return sc
	}

	var cats []string
	seen := map[string]bool{}
	for i, p := range c.Points {
		l := p.Label()
		if !seen[l] {
			seen[l] = true
			cats = append(cats, l)
		}
		data[i] = opts.ScatterData{Value: []interface{}{l, p.Y}}
	}
	sc.SetXAxis(cats).AddSeries(c.YName, data)
	return sc
}

func renderBox(c *Chart) components.Charter {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(c.globalOpts(true)...)

	labels := make([]string, len(c.Boxes))
	data := make([]opts.BoxPlotData, len(c.Boxes))
	for i, b := range c.Boxes {
		labels[i] = b.Label
		data[i] = opts.BoxPlotData{
			Name:  b.Label,
			Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max},
		}
	}
	box.SetXAxis(labels).AddSeries(c.YName, data)
	return box
}

func renderPie(c *Chart) components.Charter {
	pie := charts.NewPie()
	pie.SetGlobalOptions(append(c.globalOpts(false),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
	)...)

	data := make([]opts.PieData, len(c.Points))
	for i, p := range c.Points {
		data[i] = opts.PieData{Name: p.Label(), Value: p.Y}
	}
	pie.AddSeries(c.YName, data)
	return pie
}
