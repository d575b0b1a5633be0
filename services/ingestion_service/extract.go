package ingestion_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// DocumentExtractor converts uploaded documents into plain text ready for
// chunking and embedding.
type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{logger: logger}
}

func (e *DocumentExtractor) ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to create PDF reader: %v", err)
	}

	totalPage := reader.NumPage()
	var fullText strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}
		fullText.WriteString(text)
	}

	if fullText.Len() == 0 {
		return "", fmt.Errorf("no text content extracted from PDF")
	}

	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", fullText.Len()))
	return fullText.String(), nil
}

func (e *DocumentExtractor) ExtractTextFromWord(data []byte) (string, error) {
	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %v", err)
	}

	if len(result.Body) == 0 {
		return "", fmt.Errorf("no text content extracted from Word document")
	}
	return result.Body, nil
}

// ExtractTextFromHTML strips markup, scripts and styles, keeping the visible
// text of the page.
func (e *DocumentExtractor) ExtractTextFromHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML document: %v", err)
	}

	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("title, h1, h2, h3, h4, h5, h6, p, li, td, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		text := strings.TrimSpace(doc.Text())
		if text == "" {
			return "", fmt.Errorf("no text content extracted from HTML document")
		}
		return text, nil
	}
	return strings.Join(parts, "\n"), nil
}

func (e *DocumentExtractor) ExtractTextFromPlain(data []byte) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("document is empty")
	}
	return text, nil
}
