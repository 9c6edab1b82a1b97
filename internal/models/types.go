package models

import "time"

// Kind selects which references of a page are checked.
type Kind int

const (
	KindLink Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Outcome is the verdict of a single reachability probe.
type Outcome int

const (
	OutcomeBroken Outcome = iota
	OutcomeOK
)

func (o Outcome) String() string {
	if o == OutcomeOK {
		return "OK"
	}
	return "Broken"
}

type CheckResult struct {
	URL        string        `json:"url"`
	Outcome    Outcome       `json:"-"`
	StatusCode int           `json:"status,omitempty"`
	Err        string        `json:"error,omitempty"`
	Duration   time.Duration `json:"-"`
}

// CrawlOptions mirrors the recognised invocation parameters.
type CrawlOptions struct {
	URL              string `json:"url" yaml:"url"`
	FindBrokenLinks  bool   `json:"find_broken_links" yaml:"find_broken_links"`
	FindBrokenImages bool   `json:"find_broken_images" yaml:"find_broken_images"`
	IsXMLSitemap     bool   `json:"is_xml_sitemap" yaml:"is_xml_sitemap"`
}

// Kinds returns the reference kinds to check, links first. Links are the
// default when nothing was requested.
func (o CrawlOptions) Kinds() []Kind {
	var kinds []Kind
	if o.FindBrokenLinks {
		kinds = append(kinds, KindLink)
	}
	if o.FindBrokenImages {
		kinds = append(kinds, KindImage)
	}
	if len(kinds) == 0 {
		kinds = append(kinds, KindLink)
	}
	return kinds
}

type Summary struct {
	RunID    string        `json:"runId"`
	Sitemaps int           `json:"sitemaps"`
	Pages    int           `json:"pages"`
	Admitted int           `json:"admitted"`
	Checked  int           `json:"checked"`
	OK       int           `json:"ok"`
	Broken   int           `json:"broken"`
	Elapsed  time.Duration `json:"elapsed"`
}
