package crm

import (
	"fmt"
	"strings"

	"crmsync/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ExtractTable returns the cells of every row of the first table in the page. Rows of nested
// tables are returned too, and their cells also belong to the enclosing row.
func ExtractTable(page FetchedPage) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", ErrParse, page.Page, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: page %d", ErrNoTableFound, page.Page)
	}
	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, fmt.Errorf("%w: page %d", ErrNoRowsFound, page.Page)
	}

	rows := make([]Row, 0, trs.Length())
	trs.Each(func(_ int, tr *goquery.Selection) {
		row := Row{}
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(htmlutil.GetText(cell.Get(0))))
		})
		rows = append(rows, row)
	})
	return rows, nil
}
