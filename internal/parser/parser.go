package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// Document is a parsed HTML page or XML sitemap. Sitemaps go through the
// same lenient HTML tree builder; unknown elements such as <urlset> and <loc>
// are kept as ordinary nodes.
type Document struct {
	doc *goquery.Document
}

// Parse decodes r to UTF-8 (using contentType and any <meta charset> hints)
// and builds a document tree.
func (p *Parser) Parse(r io.Reader, contentType string) (*Document, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Attrs returns the named attribute of every element with the given tag, in
// document order. Elements without the attribute are skipped.
func (d *Document) Attrs(tag, attr string) []string {
	var out []string
	d.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			out = append(out, v)
		}
	})
	return out
}

// Texts returns the trimmed text content of every element with the given tag.
func (d *Document) Texts(tag string) []string {
	var out []string
	d.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
