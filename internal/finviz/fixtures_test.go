package finviz

import (
	"fmt"
	"strings"

	"github.com/wonny/gainerscout/pkg/config"
)

// snapshot renders one screener snapshot block; empty fields are left out
func snapshot(ticker, company, industry string, financial [][]string) string {
	var b strings.Builder
	b.WriteString(`<table class="snapshot-table"><tbody>`)
	if ticker != "" {
		fmt.Fprintf(&b, `<tr><td class="snapshot-td2">Ticker</td><td><a href="quote.ashx?t=x">%s</a></td></tr>`, ticker)
	}
	if company != "" {
		fmt.Fprintf(&b, `<tr><td>Company</td><td> %s </td></tr>`, company)
	}
	if industry != "" {
		fmt.Fprintf(&b, `<tr><td>Industry</td><td>%s</td></tr>`, industry)
	}
	b.WriteString(`</tbody></table>`)

	if financial != nil {
		b.WriteString(`<table class="snapshot-table2 screener_snapshot-table-body"><tbody>`)
		for _, row := range financial {
			b.WriteString("<tr>")
			for _, cell := range row {
				fmt.Fprintf(&b, "<td>%s</td>", cell)
			}
			b.WriteString("</tr>")
		}
		b.WriteString(`</tbody></table>`)
	}
	return b.String()
}

func listingPage(blocks ...string) string {
	return `<html><body><div id="screener-content">` + strings.Join(blocks, "\n") + `</div></body></html>`
}

func detailPage(atr, sector string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if sector != "" {
		fmt.Fprintf(&b, `<a class="tab-link" href="screener.ashx?v=111&f=sec_%s">%s</a>`, strings.ToLower(sector), sector)
	}
	b.WriteString(`<a class="tab-link" href="screener.ashx?v=111&f=ind_semis">Semiconductors</a>`)
	b.WriteString(`<table class="snapshot-table2"><tr>`)
	b.WriteString(`<td class="snapshot-td2 w-[8%]">RSI (14)</td><td class="snapshot-td2 w-[8%]"><b>71.20</b></td>`)
	if atr != "" {
		fmt.Fprintf(&b, `<td class="snapshot-td2 w-[7%%]">ATR (14)</td><td class="snapshot-td2 w-[8%%]"><b> %s </b></td>`, atr)
	}
	b.WriteString(`</tr></table></body></html>`)
	return b.String()
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Env: "development",
		Finviz: config.FinvizConfig{
			BaseURL:           baseURL,
			FetchMaxAttempts:  3,
			DetailMaxAttempts: 3,
		},
	}
}
