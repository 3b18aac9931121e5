package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"docsmith/internal/domain"
	"docsmith/internal/logger"
)

// PDFRenderer prints the HTML rendering of a result to PDF through headless
// Chrome. Chrome startup is flaky under load, so rendering retries with
// backoff before giving up.
type PDFRenderer struct {
	html     *HTMLRenderer
	attempts int
}

// NewPDFRenderer creates the PDF renderer on top of the HTML renderer.
func NewPDFRenderer(html *HTMLRenderer) *PDFRenderer {
	return &PDFRenderer{html: html, attempts: 3}
}

func (r *PDFRenderer) Format() string      { return "pdf" }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render produces PDF bytes, validating the %PDF signature of the output.
func (r *PDFRenderer) Render(ctx context.Context, result *domain.GenerationResult) ([]byte, error) {
	htmlBytes, err := r.html.Render(ctx, result)
	if err != nil {
		return nil, err
	}

	var pdfBytes []byte
	var renderErr error
	for i := 0; i < r.attempts; i++ {
		pdfBytes, renderErr = r.printToPDF(ctx, htmlBytes)
		if renderErr == nil {
			if bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
				return pdfBytes, nil
			}
			renderErr = fmt.Errorf("invalid PDF output (len=%d)", len(pdfBytes))
		}

		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldAttempt: i + 1,
		}).WithError(renderErr).Warn("PDF render attempt failed")

		if i < r.attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("PDF rendering failed after %d attempts: %w", r.attempts, renderErr)
}

func (r *PDFRenderer) printToPDF(ctx context.Context, html []byte) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p := os.Getenv("CHROME_PATH"); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	tmpDir, err := os.MkdirTemp("", "docsmith-render-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, err
	}

	var pdfBuf []byte
	err = chromedp.Run(cctx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> 8.27in x 11.69in
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
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
