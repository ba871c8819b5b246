package infrastructure

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type ChromedpRenderer struct {
	browser *Browser
	timeout time.Duration
}

func NewChromedpRenderer(b *Browser) *ChromedpRenderer {
	return &ChromedpRenderer{browser: b, timeout: 60 * time.Second}
}

// RenderHTMLToPDF prints html in a fresh tab. Page size comes from the
// document's @page rule; A4 is the fallback.
func (r *ChromedpRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	tctx, cancelTab := r.browser.tab()
	defer cancelTab()

	tctx, cancel := context.WithTimeout(tctx, r.timeout)
	defer cancel()
	// propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdfBuf []byte
	err := chromedp.Run(tctx,
		chromedp.Navigate("about:blank"),
		setContent(html),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> inches: 8.27 x 11.69
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
