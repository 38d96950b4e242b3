package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dyuri/dxfconv/pkg/dxfconv"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
	colorWhite = lipgloss.Color("255")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey    = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleValue  = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber = lipgloss.NewStyle().Foreground(colorCyan).Width(9).Align(lipgloss.Right)
	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Width(9).Align(lipgloss.Right)
	styleLayer  = lipgloss.NewStyle().Foreground(colorWhite).Width(24)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleGood   = lipgloss.NewStyle().Foreground(colorGreen)
)

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(value))
}

// printInfo renders the layer table.
func printInfo(w io.Writer, path string, res *dxfconv.Result) {
	d := res.Drawing
	fmt.Fprintln(w, styleTitle.Render("DXF Drawing"))
	printKeyValue(w, "File", path)
	codepage := d.Codepage
	if codepage == "" {
		codepage = "(not declared)"
	}
	printKeyValue(w, "Codepage", codepage)
	printKeyValue(w, "Layers", fmt.Sprint(len(d.Layers)))
	fmt.Fprintln(w)

	header := styleLayer.Render("Layer")
	for _, h := range []string{"Texts", "Points", "Lines", "Polygons", "Holes"} {
		header += styleHeader.Render(h)
	}
	fmt.Fprintln(w, header+"  "+styleDim.Render("Flags"))

	for _, l := range d.Layers {
		info := newLayerInfo(l)
		row := styleLayer.Render(info.Name)
		for _, n := range []int{info.Texts, info.Points, info.Lines, info.Polygons, info.Holes} {
			row += styleNumber.Render(fmt.Sprint(n))
		}
		fmt.Fprintln(w, row+"  "+styleDim.Render(formatFlags(info.Flags)))
	}
}

func formatFlags(flags map[string][]string) string {
	var parts []string
	for _, kind := range []string{"text", "point", "line", "polygon"} {
		if f, ok := flags[kind]; ok {
			parts = append(parts, kind+":"+strings.Join(f, ","))
		}
	}
	return strings.Join(parts, " ")
}

// printRepair renders repair statistics.
func printRepair(w io.Writer, res *dxfconv.Result) {
	s := res.Stats
	fmt.Fprintln(w, styleTitle.Render("Polygon Repair"))
	printKeyValue(w, "Rings", fmt.Sprint(s.Rings))
	printKeyValue(w, "Retraced", styleGood.Render(fmt.Sprint(s.Retraced)))
	printKeyValue(w, "Split", styleGood.Render(fmt.Sprint(s.Split)))
	printKeyValue(w, "Unchanged", fmt.Sprint(s.Unchanged))
}
