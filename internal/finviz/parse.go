package finviz

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	contentSelector   = "div#screener-content"
	identSelector     = "table.snapshot-table"
	financialSelector = "table.snapshot-table2"
)

// ParseListing extracts one record per snapshot table of a screener page.
// A page without the screener content region yields no records.
func ParseListing(html string) ([]*StockRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page failed: %w", err)
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return nil, nil
	}

	var records []*StockRecord
	for _, block := range snapshotBlocks(content) {
		record := parseIdentity(block.ident)
		if record == nil {
			continue // Ticker 셀 없는 테이블은 스냅샷이 아님
		}
		if block.financial != nil {
			parseFinancials(block.financial, record)
		}
		records = append(records, record)
	}

	return records, nil
}

type snapshotBlock struct {
	ident     *goquery.Selection
	financial *goquery.Selection
}

// snapshotBlocks pairs every snapshot table with the first financial table
// that follows it (nested or sibling) before the next snapshot table.
func snapshotBlocks(content *goquery.Selection) []snapshotBlock {
	var blocks []snapshotBlock

	// Find는 문서 순서대로 반환
	content.Find(identSelector + ", " + financialSelector).Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("snapshot-table") {
			blocks = append(blocks, snapshotBlock{ident: s})
			return
		}
		if len(blocks) == 0 {
			return
		}
		last := &blocks[len(blocks)-1]
		if last.financial == nil {
			last.financial = s
		}
	})

	return blocks
}

// parseIdentity reads Ticker, Company and Industry; nil when there is no Ticker
func parseIdentity(table *goquery.Selection) *StockRecord {
	tickerText, ok := labelValue(table, ColTicker)
	if !ok {
		return nil
	}

	ticker, market := SplitTicker(tickerText)
	if ticker == "" {
		return nil
	}

	record := &StockRecord{Ticker: ticker}
	if market != "" {
		record.setOnce(ColMarket, market)
	}
	if company, ok := labelValue(table, ColCompany); ok {
		record.setOnce(ColCompany, company)
	}
	if industry, ok := labelValue(table, ColIndustry); ok {
		record.setOnce(ColIndustry, industry)
	}
	return record
}

// labelValue finds the td whose trimmed text is exactly label and returns
// the trimmed text of its next td sibling.
func labelValue(scope *goquery.Selection, label string) (string, bool) {
	cell := scope.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return strings.TrimSpace(td.Text()) == label
	}).First()
	if cell.Length() == 0 {
		return "", false
	}

	value := cell.NextAllFiltered("td").First()
	if value.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(value.Text()), true
}

// parseFinancials scans rows as (label, value) pairs and keeps whitelisted labels
func parseFinancials(table *goquery.Selection, record *StockRecord) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.TrimSpace(cells.Eq(i).Text())
			if !financialLabels[label] {
				continue
			}
			record.setOnce(label, strings.TrimSpace(cells.Eq(i+1).Text()))
		}
	})
}
