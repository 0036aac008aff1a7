package telegram

import (
	"html"
	"strings"

	"github.com/wonny/gainerscout/internal/finviz"
)

const notAvailable = "N/A"

// FormatRecord renders one record as an HTML message, one line per column
func FormatRecord(r *finviz.StockRecord) string {
	var b strings.Builder
	for _, col := range finviz.Columns {
		value, ok := r.Field(col)
		if !ok {
			value = notAvailable
		}
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(col))
		b.WriteString(":</b> ")
		b.WriteString(html.EscapeString(value))
		b.WriteString("\n")
	}
	return b.String()
}
