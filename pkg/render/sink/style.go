package sink

import (
	"bytes"
	"encoding/xml"
	"math"
	"strconv"
)

// Style controls the appearance of SVG output.
type Style struct {
	NodeFill   string
	EdgeStroke string
	EdgeWidth  float64
	FontFamily string
	FontSize   float64
	TextFill   string
	Background string // empty for transparent
}

// DefaultStyle matches the classic rule tree visualization.
func DefaultStyle() Style {
	return Style{
		NodeFill:   "steelblue",
		EdgeStroke: "black",
		EdgeWidth:  2,
		FontFamily: "Arial",
		FontSize:   12,
		TextFill:   "black",
	}
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
