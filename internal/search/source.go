package search

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// SourceClassifier classifies evidence URLs into source kinds
type SourceClassifier struct {
	domainMap    map[string]model.SourceKind
	pathPatterns []*compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	kind    model.SourceKind
}

// defaultDomains maps well-known hosts to kinds. Subdomains match too.
var defaultDomains = map[string]model.SourceKind{
	"wikipedia.org":  model.SourceEncyclopedia,
	"wikidata.org":   model.SourceEncyclopedia,
	"britannica.com": model.SourceEncyclopedia,
	"dbpedia.org":    model.SourceEncyclopedia,

	"europa.eu":             model.SourceOfficial,
	"sec.gov":               model.SourceOfficial,
	"companieshouse.gov.uk": model.SourceOfficial,
	"insee.fr":              model.SourceOfficial,

	"doi.org":                 model.SourceAcademic,
	"arxiv.org":               model.SourceAcademic,
	"scholar.google.com":      model.SourceAcademic,
	"jstor.org":               model.SourceAcademic,
	"pubmed.ncbi.nlm.nih.gov": model.SourceAcademic,

	"reuters.com":     model.SourceNews,
	"apnews.com":      model.SourceNews,
	"bbc.co.uk":       model.SourceNews,
	"bbc.com":         model.SourceNews,
	"nytimes.com":     model.SourceNews,
	"theguardian.com": model.SourceNews,
	"lemonde.fr":      model.SourceNews,
	"ft.com":          model.SourceNews,
	"bloomberg.com":   model.SourceNews,
}

var defaultPathPatterns = map[string]model.SourceKind{
	`^/(news|press|article|articles)/`: model.SourceNews,
	`^/(wiki|encyclopedia)/`:           model.SourceEncyclopedia,
	`^/(paper|papers|abs|pdf)/`:        model.SourceAcademic,
}

// NewSourceClassifier creates a classifier. extra overrides or extends the
// built-in host table (keys are bare hosts, values kind names).
func NewSourceClassifier(extra map[string]string) *SourceClassifier {
	c := &SourceClassifier{
		domainMap: make(map[string]model.SourceKind, len(defaultDomains)+len(extra)),
	}
	for host, kind := range defaultDomains {
		c.domainMap[host] = kind
	}
	for host, kind := range extra {
		c.domainMap[strings.ToLower(host)] = parseKind(kind)
	}

	for expr, kind := range defaultPathPatterns {
		if re, err := regexp.Compile(expr); err == nil {
			c.pathPatterns = append(c.pathPatterns, &compiledPattern{pattern: re, kind: kind})
		}
	}

	return c
}

// Classify maps a URL to a source kind. Unparseable URLs are SourceWeb.
func (c *SourceClassifier) Classify(rawURL string) model.SourceKind {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.SourceWeb
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	// Exact, then suffix match (en.wikipedia.org matches wikipedia.org)
	if kind, ok := c.domainMap[host]; ok {
		return kind
	}
	for domain, kind := range c.domainMap {
		if strings.HasSuffix(host, "."+domain) {
			return kind
		}
	}

	switch {
	case strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov.") || strings.HasSuffix(host, ".gouv.fr"):
		return model.SourceOfficial
	case strings.HasSuffix(host, ".edu") || strings.Contains(host, ".ac.") || strings.Contains(host, ".edu."):
		return model.SourceAcademic
	}

	for _, cp := range c.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.kind
		}
	}

	return model.SourceWeb
}

var defaultClassifier = NewSourceClassifier(nil)

// ClassifySource classifies a URL with the built-in host table
func ClassifySource(rawURL string) model.SourceKind {
	return defaultClassifier.Classify(rawURL)
}

func parseKind(s string) model.SourceKind {
	kind := model.SourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range model.AllSourceKinds {
		if kind == known {
			return kind
		}
	}
	return model.SourceWeb
}
