package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_SpecificQuestion(t *testing.T) {
	c := NewClassifier()

	for _, q := range []string{
		"when was the contract signed",
		"quem assinou o contrato",
		"preço unitário",
	} {
		intent := c.Classify(q)
		assert.False(t, intent.Comprehensive, "query %q", q)
		assert.Equal(t, IntentSpecificQuestion, intent.Type)
		assert.Empty(t, intent.Terms)
	}
}

func TestClassifier_ComprehensiveDocumentSearch(t *testing.T) {
	c := NewClassifier()

	for _, q := range []string{
		"show me all documents",
		"give me a complete analysis",
		"me mostre todos os pontos",
		"resumo detalhado",
	} {
		intent := c.Classify(q)
		assert.True(t, intent.Comprehensive, "query %q", q)
	}
}

func TestClassifier_ComprehensiveTermSearch(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("find all documents containing payment")
	require.True(t, intent.Comprehensive)
	assert.Equal(t, IntentComprehensiveTerm, intent.Type)
	assert.Contains(t, intent.Terms, "payment")
}

func TestClassifier_ExtractsTaxIDs(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("find all documents with cnpj 12.345.678/0001-90")
	require.True(t, intent.Comprehensive)
	assert.Contains(t, intent.Terms, "12.345.678/0001-90")
}

func TestClassifier_ExtractsQuotedTerms(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify(`show me all notes mentioning "force majeure"`)
	require.True(t, intent.Comprehensive)
	assert.Contains(t, intent.Terms, "force majeure")
}

func TestClassifier_PortugueseDocumentReference(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("com base no documento contrato-2024 qual o valor?")
	require.True(t, intent.Comprehensive)
	require.Equal(t, IntentComprehensiveTerm, intent.Type)
	// The capture group after the article holds the document name.
	assert.Contains(t, intent.Terms, "contrato-2024 qual o valor")
}

func TestClassifier_DedupesTermsInOrder(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify(`all documents containing "alpha" mentioning "alpha" with "beta"`)
	require.True(t, intent.Comprehensive)

	// First-seen order, no repeats.
	seen := map[string]int{}
	for _, term := range intent.Terms {
		seen[term]++
	}
	for term, n := range seen {
		assert.Equal(t, 1, n, "term %q extracted more than once", term)
	}
	require.NotEmpty(t, intent.Terms)
	assert.Equal(t, "alpha", intent.Terms[0])
}

func TestClassifier_EmptyQuery(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("   ")
	assert.False(t, intent.Comprehensive)
	assert.Equal(t, IntentSpecificQuestion, intent.Type)
}

func TestClassifier_AddComprehensivePattern(t *testing.T) {
	c := NewClassifier()

	q := "zzz special marker zzz"
	assert.False(t, c.Classify(q).Comprehensive)

	require.NoError(t, c.AddComprehensivePattern(`special marker`, 0))
	assert.True(t, c.Classify(q).Comprehensive)

	assert.Error(t, c.AddComprehensivePattern(`broken(`, -1))
}

func TestClassifier_AddTermPattern(t *testing.T) {
	c := NewClassifier()

	require.NoError(t, c.AddTermPattern(`invoice\s+#(\S+)`, 0))

	intent := c.Classify("show me all entries for invoice #A-1009")
	require.True(t, intent.Comprehensive)
	assert.Contains(t, intent.Terms, "a-1009")

	// Group index beyond the pattern's capture count is rejected.
	assert.Error(t, c.AddTermPattern(`plain`, 0))
	assert.Error(t, c.AddTermPattern(`broken(`, 0))
}

func TestClassifier_PatternsSnapshot(t *testing.T) {
	c := NewClassifier()

	comprehensive, terms := c.Patterns()
	assert.Len(t, comprehensive, len(defaultComprehensivePatterns))
	assert.Len(t, terms, len(defaultTermPatterns))
}
