// Package classification maps listing titles, SKUs and image URLs to the
// supplier that fulfils them and the automation tool that wraps them.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/dead-stock/internal/model"
)

// Separators are the characters treated uniformly as SKU token boundaries.
const Separators = "-_:|/. "

// Supplier is one entry of the supplier table.
type Supplier struct {
	Name          string
	IDPattern     string   // Regex for a bare supplier id token, optional
	SKUPrefixes   []string // Short codes used as the first SKU token
	TitleKeywords []string
	ImageDomains  []string
}

// Tool is an automation tool that prefixes the SKUs it manages.
type Tool struct {
	Name     string
	Prefixes []string
}

// Result is the outcome of classifying one listing.
type Result struct {
	SupplierID     *string
	AutomationTool *string
	SupplierName   string
	// WrappedSupplier is the supplier recovered from inside a tool-wrapped SKU.
	WrappedSupplier string
}

type compiledSupplier struct {
	idRegex  *regexp.Regexp
	keywords []*regexp.Regexp
	codes    map[string]struct{}
	Supplier
}

type token struct {
	text  string
	upper string
	end   int
}

// SupplierClassifier classifies listings against a fixed supplier table.
// It holds no mutable state and is safe for concurrent use.
type SupplierClassifier struct {
	ambiguous *regexp.Regexp
	tools     map[string]string
	suppliers []compiledSupplier
}

// NewSupplierClassifier compiles the given supplier and tool tables.
// Table order is priority order.
func NewSupplierClassifier(suppliers []Supplier, tools []Tool) (*SupplierClassifier, error) {
	compiled := make([]compiledSupplier, 0, len(suppliers))

	for _, s := range suppliers {
		cs := compiledSupplier{
			Supplier: s,
			codes:    make(map[string]struct{}, len(s.SKUPrefixes)),
		}

		if s.IDPattern != "" {
			re, err := regexp.Compile("(?i)" + s.IDPattern)
			if err != nil {
				return nil, fmt.Errorf("failed to compile id pattern for %s: %w", s.Name, err)
			}
			cs.idRegex = re
		}

		for _, kw := range s.TitleKeywords {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("failed to compile keyword %q for %s: %w", kw, s.Name, err)
			}
			cs.keywords = append(cs.keywords, re)
		}

		for _, p := range s.SKUPrefixes {
			cs.codes[strings.ToUpper(p)] = struct{}{}
		}

		compiled = append(compiled, cs)
	}

	toolIndex := make(map[string]string)
	for _, t := range tools {
		for _, p := range t.Prefixes {
			toolIndex[strings.ToUpper(p)] = t.Name
		}
	}

	return &SupplierClassifier{
		suppliers: compiled,
		tools:     toolIndex,
		ambiguous: regexp.MustCompile(AmbiguousSKUPattern),
	}, nil
}

// NewDefault returns a classifier for the built-in supplier and tool tables.
func NewDefault() *SupplierClassifier {
	c, err := NewSupplierClassifier(DefaultSuppliers(), DefaultTools())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify maps a listing to its supplier. The first matching rule wins:
// automation-tool prefix, supplier table, ambiguous numeric SKU, Unknown.
func (c *SupplierClassifier) Classify(title, sku, imageURL string) Result {
	sku = strings.TrimSpace(sku)
	title = strings.TrimSpace(title)

	if title == "" && sku == "" {
		return Result{SupplierName: model.SupplierUnknown}
	}

	tokens := splitSKU(sku)

	if len(tokens) > 0 {
		if tool, ok := c.tools[tokens[0].upper]; ok {
			return c.unwrap(tool, title, sku, imageURL, tokens)
		}
	}

	if s, id, ok := c.direct(title, sku, imageURL, tokens); ok {
		return Result{SupplierName: s.Name, SupplierID: id}
	}

	if c.ambiguous.MatchString(sku) {
		return Result{SupplierName: model.SupplierUnverified}
	}

	return Result{SupplierName: model.SupplierUnknown}
}

// Apply classifies the listing in place.
func (c *SupplierClassifier) Apply(l *model.Listing) {
	r := c.Classify(l.Title, l.SKU, l.ImageURL)
	l.SupplierName = r.SupplierName
	l.SupplierID = r.SupplierID
	l.AutomationTool = r.AutomationTool
	l.WrappedSupplier = r.WrappedSupplier
}

func (c *SupplierClassifier) unwrap(tool, title, sku, imageURL string, tokens []token) Result {
	res := Result{
		SupplierName:   tool,
		AutomationTool: &tool,
	}

	rest := tokens[1:]
	remainder := strings.TrimLeft(sku[tokens[0].end:], Separators)

	if name, id, ok := c.nested(rest, sku, tokens[0].end); ok {
		res.WrappedSupplier = name
		res.SupplierID = id
		return res
	}

	if remainder != "" {
		res.SupplierID = &remainder
	}

	// The remainder carried no supplier signature; fall back to the title
	// and image for the wrapped supplier name only.
	if s, _, ok := c.direct(title, "", imageURL, nil); ok {
		res.WrappedSupplier = s.Name
	}

	return res
}

// nested matches supplier id patterns first, then short supplier codes.
// A code in the last token takes the text between from and the code as
// its id.
func (c *SupplierClassifier) nested(rest []token, sku string, from int) (string, *string, bool) {
	for _, s := range c.suppliers {
		if s.idRegex == nil {
			continue
		}
		for _, t := range rest {
			if s.idRegex.MatchString(t.text) {
				id := t.upper
				return s.Name, &id, true
			}
		}
	}

	for i, t := range rest {
		for _, s := range c.suppliers {
			if _, ok := s.codes[t.upper]; !ok {
				continue
			}
			if i < len(rest)-1 {
				id := strings.TrimLeft(sku[t.end:], Separators)
				return s.Name, &id, true
			}
			id := strings.Trim(sku[from:t.end-len(t.text)], Separators)
			if id == "" {
				return s.Name, nil, true
			}
			return s.Name, &id, true
		}
	}

	return "", nil, false
}

func (c *SupplierClassifier) direct(title, sku, imageURL string, tokens []token) (*compiledSupplier, *string, bool) {
	image := strings.ToLower(imageURL)

	for i := range c.suppliers {
		s := &c.suppliers[i]

		if len(tokens) > 0 {
			if _, ok := s.codes[tokens[0].upper]; ok {
				if id := s.idToken(tokens[1:]); id != nil {
					return s, id, true
				}
				remainder := strings.TrimLeft(sku[tokens[0].end:], Separators)
				if remainder == "" {
					return s, nil, true
				}
				return s, &remainder, true
			}
			if id := s.idToken(tokens); id != nil {
				return s, id, true
			}
		}

		for _, kw := range s.keywords {
			if kw.MatchString(title) {
				return s, s.idToken(tokens), true
			}
		}

		for _, domain := range s.ImageDomains {
			if image != "" && strings.Contains(image, strings.ToLower(domain)) {
				return s, s.idToken(tokens), true
			}
		}
	}

	return nil, nil, false
}

func (s *compiledSupplier) idToken(tokens []token) *string {
	if s.idRegex == nil {
		return nil
	}
	for _, t := range tokens {
		if s.idRegex.MatchString(t.text) {
			id := t.upper
			return &id
		}
	}
	return nil
}

// splitSKU splits on any separator, dropping empty tokens. Each token keeps
// its end offset so remainders can be sliced from the original SKU.
func splitSKU(sku string) []token {
	var tokens []token
	start := -1
	for i, r := range sku {
		if strings.ContainsRune(Separators, r) {
			if start >= 0 {
				tokens = append(tokens, newToken(sku[start:i], i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, newToken(sku[start:], len(sku)))
	}
	return tokens
}

func newToken(text string, end int) token {
	return token{text: text, upper: strings.ToUpper(text), end: end}
}
