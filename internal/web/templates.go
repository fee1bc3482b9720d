package web

import (
	"fmt"
	"html/template"
	"strings"

	"roombook/internal/export"
	"roombook/internal/page"
	"roombook/internal/selection"
)

var templateFuncs = template.FuncMap{
	"segmentClass": segmentClass,
	"statusLabel":  export.StatusLabel,
	"join":         strings.Join,
	"left":         func(pos float64) template.CSS { return template.CSS(fmt.Sprintf("left: %.4f%%", pos)) },
	"width":        func(n int) template.CSS { return template.CSS(fmt.Sprintf("width: %.4f%%", 100/float64(max(n, 1)))) },
}

// segmentClass returns the CSS classes of a timeline segment.
func segmentClass(seg page.SegmentView) string {
	classes := []string{"slot", string(seg.Status)}
	if seg.Current {
		classes = append(classes, "current")
	}
	if seg.Mark != selection.MarkNone {
		classes = append(classes, "selected", string(seg.Mark))
	}
	return strings.Join(classes, " ")
}
