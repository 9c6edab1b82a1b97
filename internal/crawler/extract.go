package crawler

import (
	mapset "github.com/deckarep/golang-set/v2"

	"go-linkcheck/internal/models"
	"go-linkcheck/internal/parser"
)

var referenceSources = map[models.Kind]struct{ tag, attr string }{
	models.KindLink:  {"a", "href"},
	models.KindImage: {"img", "src"},
}

// ExtractReferences returns the distinct raw references of the given kind,
// in order of first appearance.
func ExtractReferences(doc *parser.Document, kind models.Kind) []string {
	src, ok := referenceSources[kind]
	if !ok {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	var refs []string
	for _, v := range doc.Attrs(src.tag, src.attr) {
		if seen.Add(v) {
			refs = append(refs, v)
		}
	}
	return refs
}

// ExtractLocations returns every <loc> entry of a sitemap in document order.
func ExtractLocations(doc *parser.Document) []string {
	return doc.Texts("loc")
}
