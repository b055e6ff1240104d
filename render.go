package egms2risk

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// classColors Plot colors per infrastructure class
var classColors = map[InfraClass]color.RGBA{
	INFRA_RAILWAY: {R: 214, G: 39, B: 40, A: 255},
	INFRA_ROAD:    {R: 31, G: 119, B: 180, A: 255},
	INFRA_PORT:    {R: 148, G: 103, B: 189, A: 255},
}

// RenderMap draws the joined points colored by their primary class over the
// buffer zone outlines and saves a static image. Everything is reprojected
// from the metric CRS into EPSG:3857 first. The output format follows the
// file extension (png, svg, pdf).
func RenderMap(fileName, title string, joined []JoinedPoint, zones []ClassZone) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Easting (m, EPSG:3857)"
	p.Y.Label.Text = "Northing (m, EPSG:3857)"
	p.Add(plotter.NewGrid())

	for _, zone := range zones {
		outlines := []orb.Geometry{}
		if len(zone.Coverage) > 0 {
			outlines = append(outlines, zone.Coverage)
		} else {
			outlines = append(outlines, zone.Sources...)
		}
		for _, geom := range outlines {
			projected, err := TransformGeometry(geom, EPSG_2157, EPSG_3857)
			if err != nil {
				return errors.Wrapf(err, "Can't reproject zone '%s'", zone.Class)
			}
			for _, xys := range geometryXYs(projected) {
				line, err := plotter.NewLine(xys)
				if err != nil {
					return errors.Wrap(err, "Can't build zone outline")
				}
				c := classColors[zone.Class]
				c.A = 140
				line.LineStyle.Color = c
				line.LineStyle.Width = vg.Points(0.5)
				p.Add(line)
			}
		}
	}

	for _, class := range classPriority {
		xys := plotter.XYs{}
		for i := range joined {
			if joined[i].Primary != class {
				continue
			}
			pt, err := Transform(joined[i].Point.Geom, EPSG_2157, EPSG_3857)
			if err != nil {
				return errors.Wrapf(err, "Can't reproject point '%s'", joined[i].Point.ID)
			}
			xys = append(xys, plotter.XY{X: pt[0], Y: pt[1]})
		}
		if len(xys) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrap(err, "Can't build scatter")
		}
		scatter.GlyphStyle.Color = classColors[class]
		scatter.GlyphStyle.Radius = vg.Points(1.2)
		p.Add(scatter)
		p.Legend.Add(class.String(), scatter)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return errors.Wrap(err, "Can't create output directory")
	}
	if err := p.Save(10*vg.Inch, 10*vg.Inch, fileName); err != nil {
		return errors.Wrap(err, "Can't save map")
	}
	return nil
}

// geometryXYs flattens a geometry into drawable point sequences
func geometryXYs(geom orb.Geometry) []plotter.XYs {
	switch g := geom.(type) {
	case orb.LineString:
		return []plotter.XYs{lineXYs(g)}
	case orb.MultiLineString:
		out := make([]plotter.XYs, 0, len(g))
		for _, line := range g {
			out = append(out, lineXYs(line))
		}
		return out
	case orb.Polygon:
		out := make([]plotter.XYs, 0, len(g))
		for _, ring := range g {
			out = append(out, lineXYs(orb.LineString(ring)))
		}
		return out
	case orb.MultiPolygon:
		out := []plotter.XYs{}
		for _, polygon := range g {
			out = append(out, geometryXYs(polygon)...)
		}
		return out
	}
	return nil
}

func lineXYs(line orb.LineString) plotter.XYs {
	xys := make(plotter.XYs, len(line))
	for i := range line {
		xys[i] = plotter.XY{X: line[i][0], Y: line[i][1]}
	}
	return xys
}
