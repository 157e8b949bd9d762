package crm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"crmsync/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParsePagination reads the page count from the last anchor of `div.pages` and the record
// count from the "showing X - Y of N" text of `div.display`.
func ParsePagination(body string) (RemoteState, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return RemoteState{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	pages := doc.Find("div.pages").First()
	if pages.Length() == 0 {
		return RemoteState{}, fmt.Errorf("%w: missing div.pages", ErrPaginationNotFound)
	}
	lastPage := pages.Find("a").Last()
	if lastPage.Length() == 0 {
		return RemoteState{}, fmt.Errorf("%w: div.pages has no anchors", ErrPaginationNotFound)
	}
	display := doc.Find("div.display").First()
	if display.Length() == 0 {
		return RemoteState{}, fmt.Errorf("%w: missing div.display", ErrPaginationNotFound)
	}

	pageText := strings.TrimSpace(lastPage.Text())
	pageCount, err := strconv.Atoi(pageText)
	if err != nil {
		return RemoteState{}, fmt.Errorf("%w: page count '%s'", ErrParse, pageText)
	}

	displayText := display.Text()
	idx := strings.LastIndex(displayText, "of")
	if idx < 0 {
		return RemoteState{}, fmt.Errorf("%w: record count text '%s'", ErrParse, strings.TrimSpace(displayText))
	}
	recordText := htmlutil.RemoveWhitespace(displayText[idx+len("of"):])
	recordText = strings.ReplaceAll(recordText, ",", "")
	recordCount, err := strconv.Atoi(recordText)
	if err != nil {
		return RemoteState{}, fmt.Errorf("%w: record count '%s'", ErrParse, recordText)
	}

	return RemoteState{
		PageCount:   pageCount,
		RecordCount: recordCount,
	}, nil
}

// Probe requests the overflow page of the listing and reads its pagination.
func (c *Client) Probe(ctx context.Context) (RemoteState, error) {
	err := c.requireAuthenticated()
	if err != nil {
		return RemoteState{}, err
	}
	res, err := c.get(ctx, c.opts.ProbeUrl)
	if err != nil {
		c.tel.ReportBroken(
			report_client_probe,
			fmt.Errorf("fetch: %w", err),
		)
		return RemoteState{}, err
	}
	state, err := ParsePagination(res.String())
	if err != nil {
		c.tel.ReportBroken(
			report_client_probe,
			fmt.Errorf("parse: %w", err),
			c.opts.ProbeUrl,
		)
		return RemoteState{}, err
	}
	c.tel.ReportCount(report_client_probe, int64(state.RecordCount))
	return state, nil
}
