package search

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Intent types reported by the classifier.
const (
	// IntentComprehensiveTerm is a broad query carrying concrete search
	// terms; callers should widen retrieval and filter on the terms.
	IntentComprehensiveTerm = "comprehensive_term_search"

	// IntentComprehensiveDocument is a broad query with no extractable
	// terms; callers should widen retrieval across documents.
	IntentComprehensiveDocument = "comprehensive_document_search"

	// IntentSpecificQuestion is the default: answer from the top hits.
	IntentSpecificQuestion = "specific_question"
)

// DefaultIntentCacheSize bounds the classification cache. Queries
// repeat heavily in chat sessions, so even a small cache hits often.
const DefaultIntentCacheSize = 1000

// taxIDPattern matches CNPJ/CPF-shaped digit runs anywhere in the
// query. It is applied to the original query, not the lowercased copy,
// since case does not matter for digits.
var taxIDPattern = regexp.MustCompile(`[\d\.\/\-]{14,18}`)

// quotedTermPattern pulls exact phrases out of double quotes.
var quotedTermPattern = regexp.MustCompile(`"([^"]+)"`)

// Intent is the outcome of classifying one query.
type Intent struct {
	// Comprehensive reports whether the query asks for broad coverage
	// rather than a single specific answer.
	Comprehensive bool `json:"is_comprehensive_search"`

	// Type is one of the Intent* constants.
	Type string `json:"intent_type"`

	// Terms are the search terms extracted from a comprehensive query,
	// deduplicated in first-seen order. Empty for specific questions.
	Terms []string `json:"search_terms"`
}

// Classifier decides how broadly a query should be answered. It is
// pattern based and never fails; an unrecognized query is simply a
// specific question. Safe for concurrent use, including concurrent
// pattern registration.
type Classifier struct {
	mu            sync.RWMutex
	comprehensive []*regexp.Regexp
	terms         []compiledTermPattern
	cache         *lru.Cache[string, Intent]
}

type compiledTermPattern struct {
	re    *regexp.Regexp
	group int
}

// NewClassifier builds a classifier with the default pattern tables.
func NewClassifier() *Classifier {
	c := &Classifier{}
	for _, p := range defaultComprehensivePatterns {
		c.comprehensive = append(c.comprehensive, regexp.MustCompile(p))
	}
	for _, p := range defaultTermPatterns {
		c.terms = append(c.terms, compiledTermPattern{
			re:    regexp.MustCompile(p.Expr),
			group: p.Group,
		})
	}
	c.cache, _ = lru.New[string, Intent](DefaultIntentCacheSize)
	return c
}

// Classify analyzes a query and reports its intent.
func (c *Classifier) Classify(query string) Intent {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return Intent{Type: IntentSpecificQuestion, Terms: []string{}}
	}

	if cached, ok := c.cache.Get(lower); ok {
		return cached
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	intent := Intent{Type: IntentSpecificQuestion, Terms: []string{}}
	for _, re := range c.comprehensive {
		if re.MatchString(lower) {
			intent.Comprehensive = true
			break
		}
	}

	if intent.Comprehensive {
		intent.Terms = c.extractTerms(query, lower)
		if len(intent.Terms) > 0 {
			intent.Type = IntentComprehensiveTerm
		} else {
			intent.Type = IntentComprehensiveDocument
		}
	}

	c.cache.Add(lower, intent)
	return intent
}

// extractTerms collects tax identifiers, quoted phrases, and pattern
// captures, deduplicated in first-seen order. Callers hold the read
// lock.
func (c *Classifier) extractTerms(query, lower string) []string {
	var terms []string

	terms = append(terms, taxIDPattern.FindAllString(query, -1)...)

	for _, m := range quotedTermPattern.FindAllStringSubmatch(query, -1) {
		terms = append(terms, m[1])
	}

	for _, tp := range c.terms {
		for _, m := range tp.re.FindAllStringSubmatch(lower, -1) {
			// Submatch 0 is the whole match; captures start at 1.
			idx := tp.group + 1
			if idx < len(m) && m[idx] != "" {
				terms = append(terms, strings.TrimSpace(m[idx]))
			}
		}
	}

	seen := make(map[string]struct{}, len(terms))
	unique := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}

// AddComprehensivePattern registers a new comprehensive pattern at
// runtime. priority < 0 appends; otherwise the pattern is inserted at
// that position, 0 being highest priority.
func (c *Classifier) AddComprehensivePattern(pattern string, priority int) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid comprehensive pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if priority >= 0 && priority < len(c.comprehensive) {
		c.comprehensive = append(c.comprehensive[:priority],
			append([]*regexp.Regexp{re}, c.comprehensive[priority:]...)...)
	} else {
		c.comprehensive = append(c.comprehensive, re)
	}
	c.cache.Purge()
	return nil
}

// AddTermPattern registers a new term-extraction pattern at runtime.
// group is the zero-based capture group holding the term.
func (c *Classifier) AddTermPattern(pattern string, group int) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid term pattern %q: %w", pattern, err)
	}
	if group < 0 || group >= re.NumSubexp() {
		return fmt.Errorf("term pattern %q has no capture group %d", pattern, group)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.terms = append(c.terms, compiledTermPattern{re: re, group: group})
	c.cache.Purge()
	return nil
}

// Patterns returns copies of the current pattern tables, for the stats
// surface.
func (c *Classifier) Patterns() (comprehensive []string, terms []TermPattern) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	comprehensive = make([]string, len(c.comprehensive))
	for i, re := range c.comprehensive {
		comprehensive[i] = re.String()
	}
	terms = make([]TermPattern, len(c.terms))
	for i, tp := range c.terms {
		terms[i] = TermPattern{Expr: tp.re.String(), Group: tp.group}
	}
	return comprehensive, terms
}
