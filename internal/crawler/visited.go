package crawler

import (
	"net/url"

	mapset "github.com/deckarep/golang-set/v2"
)

// Visited is the admission ledger of a single crawl run. A URL is admitted
// at most once, which bounds both probing and sitemap recursion.
type Visited struct {
	urls mapset.Set[string]
}

func NewVisited() *Visited {
	return &Visited{urls: mapset.NewSet[string]()}
}

// Admit records u and reports whether this is the first time it was seen.
// The lookup and the insert happen under one lock.
func (v *Visited) Admit(u *url.URL) bool {
	return v.urls.Add(u.String())
}

func (v *Visited) Len() int {
	return v.urls.Cardinality()
}
