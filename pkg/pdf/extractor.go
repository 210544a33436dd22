// Package pdf extracts per-page plain text from PDF bytes.
//
// Failures are reported as values: a document that cannot be opened at all
// yields ErrUnreadable, while a single page that cannot be decoded carries its
// own error in PageText.Err and does not affect the other pages.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable marks a document whose structure could not be parsed.
var ErrUnreadable = errors.New("pdf: unreadable document")

// PageText is the text of one page; Number is 1-based.
type PageText struct {
	Number int
	Text   string
	Err    error
}

type Document struct {
	Pages []PageText
}

type Extractor interface {
	Extract(ctx context.Context, content []byte) (*Document, error)
}

type plainTextExtractor struct{}

func NewExtractor() Extractor {
	return &plainTextExtractor{}
}

func (e *plainTextExtractor) Extract(ctx context.Context, content []byte) (doc *Document, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrUnreadable)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	total := reader.NumPage()
	doc = &Document{Pages: make([]PageText, 0, total)}
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, extractPage(reader, n))
	}
	return doc, nil
}

func extractPage(reader *pdf.Reader, number int) (page PageText) {
	page.Number = number
	defer func() {
		if r := recover(); r != nil {
			page.Text = ""
			page.Err = fmt.Errorf("pdf: page %d: %v", number, r)
		}
	}()

	p := reader.Page(number)
	if p.V.IsNull() {
		return page
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		page.Err = fmt.Errorf("pdf: page %d: %w", number, err)
		return page
	}
	page.Text = text
	return page
}
