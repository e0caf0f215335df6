package search

// Default pattern tables for the intent classifier. The vault's users
// write queries in both English and Portuguese, so both languages are
// covered. Patterns are matched against the lowercased query.

// defaultComprehensivePatterns mark queries that ask for everything on
// a topic (full summaries, document discovery, "tell me all") rather
// than one specific answer. First match wins; order is priority.
var defaultComprehensivePatterns = []string{
	// Document discovery
	`tell me (all )?the documents?`,
	`what documents?`,
	`which documents?`,
	`find (all )?documents?`,
	`search for documents?`,
	`list (all )?documents?`,
	`show me (all )?documents?`,
	`get (all )?documents?`,

	// Term-specific searches
	`contain(ing)?\s+`,
	`with\s+`,
	`that have\s+`,
	`that include\s+`,
	`mentioning\s+`,
	`referring to\s+`,

	// Brazilian tax identifiers next to their label
	`cnpj\s+[\d\.\/\-]+`,
	`cpf\s+[\d\.\-]+`,
	`[\d\.\/\-]+\s+cnpj`,
	`[\d\.\-]+\s+cpf`,

	// Portuguese comprehensive requests
	`resumo\s+completo`,
	`completo\s+por\s+se[cç][ãa]o`,
	`voce\s+tem\s+acesso\s+documento`,
	`tem\s+acesso\s+documento`,
	`acesso\s+documento`,
	`neste\s+documento`,
	`no\s+documento`,
	`do\s+documento`,
	`da\s+documento`,
	`fale mais sobre`,
	`me d[êe] mais detalhes sobre`,
	`explique (um pouco )?mais sobre`,
	`se aprofunde (mais )?nisso`,
	`elabore mais sobre (esse|o último) ponto`,
	`e sobre (o|a)`,

	// Clarification requests
	`o que (exatamente )?significa`,
	`o que quer dizer`,
	`pode definir`,
	`o que é esse termo`,
	`o que é (esse|este) (termo|conceito|ponto)`,
	`defina (esse|este) (termo|conceito)`,
	`explique (esse|este) (termo|conceito)`,

	// Direct references back to earlier results
	`\b(e|mas|então)\s+isso\b`,
	`\bdisso\b`,
	`\bnisso\b`,
	`explique (o|a) (primeiro|segundo|último) (ponto|item)`,
	`baseado nisso`,
	`com base nisso`,
	`a partir disso`,
	`em relação a isso`,
	`sobre isso`,
	`quanto a isso`,
	`no que se refere a isso`,
	`resumo\s+(completo|detalhado|integral|abrangente)`,
	`analise\s+(completa|detalhada|integral|abrangente)`,
	`me\s+d[êe]\s+um?\s+(resumo|analise)\s+(completo|completa|detalhado|detalhada)`,
	`me\s+mostre\s+(todos?|todas?|completo|completa)`,
	`me\s+explique\s+(todos?|todas?|completo|completa)`,
	`\bcompleto\b`,

	// Questions anchored to a named document
	`com\s+base\s+(no|na)\s+documento\s+`,
	`baseado\s+(no|na)\s+documento\s+`,
	`baseada\s+(no|na)\s+documento\s+`,
	`segundo\s+o\s+documento\s+`,
	`segundo\s+a\s+documento\s+`,
	`conforme\s+o\s+documento\s+`,
	`conforme\s+a\s+documento\s+`,
	`de\s+acordo\s+com\s+o\s+documento\s+`,
	`de\s+acordo\s+com\s+a\s+documento\s+`,
	`apresentadas?\s+(no|na)\s+documento\s+`,
	`apresentados?\s+(no|na)\s+documento\s+`,
	`contidas?\s+(no|na)\s+documento\s+`,
	`contidos?\s+(no|na)\s+documento\s+`,
	`no\s+documento\s+`,
	`na\s+documento\s+`,
	`do\s+documento\s+`,
	`da\s+documento\s+`,

	// Portuguese topic-wide questions
	`quais?\s+(as\s+)?(principais?)\s+(tend[eê]ncias?|caracter[ií]sticas?|aspectos?|pontos?)`,
	`qual\s+(o\s+)?(padr[aã]o|padr[oõ]es?|modelo|modelos?|estrutura|estruturas?)`,
	`o\s+que\s+é\s+`,
	`como\s+funciona\s+`,
	`explique\s+(o\s+)?(conceito|conceitos?|termo|termos?|defini[cç][aã]o)`,
	`defina\s+(o\s+)?(conceito|conceitos?|termo|termos?)`,
	`descreva\s+(as\s+)?(principais?|caracter[ií]sticas?|aspectos?|pontos?)`,
	`apresente\s+(as\s+)?(principais?|caracter[ií]sticas?|aspectos?|pontos?)`,
	`detalhe\s+(as\s+)?(principais?|caracter[ií]sticas?|aspectos?|pontos?)`,
	`me\s+explique\s+(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+conte\s+(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+informe\s+(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+mostre\s+(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+d[êe]\s+(informa[cç][oõ]es?\s+)?(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+forne[cç]a\s+(informa[cç][oõ]es?\s+)?(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+apresente\s+(informa[cç][oõ]es?\s+)?(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+descreva\s+(informa[cç][oõ]es?\s+)?(sobre|acerca\s+de|a\s+respeito\s+de)`,
	`me\s+explique\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+conte\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+informe\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+mostre\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+d[êe]\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+forne[cç]a\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+apresente\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,
	`me\s+descreva\s+(o\s+)?(conte[uú]do|conte[uú]dos?|assunto|assuntos?)`,

	// English comprehensive requests
	`give\s+me\s+(a\s+)?(complete|full|detailed|comprehensive)`,
	`show\s+me\s+(all|every|complete|full|detailed)`,
	`explain\s+(all|every|complete|full|detailed)`,
	`analyze\s+(all|every|complete|full|detailed)`,

	// Broad scope markers on their own
	`\b(all|every|full|total|comprehensive)\b`,
	`\b(todos?|todas?|total|integral|integralmente)\b`,
	`\b(detalhado|detalhada|detalhadamente|minucioso|minuciosa)\b`,
	`\b(abrangente|extenso|extensa|profundo|profunda)\b`,
}

// TermPattern pairs an extraction regex with the index of the capture
// group that holds the search term. Several Portuguese patterns carry a
// leading article group, so the term is not always group 0.
type TermPattern struct {
	Expr  string
	Group int
}

// defaultTermPatterns pull concrete search terms out of comprehensive
// queries ("containing X", "no documento Y").
var defaultTermPatterns = []TermPattern{
	{Expr: `containing\s+([^\s,]+)`, Group: 0},
	{Expr: `with\s+([^\s,]+)`, Group: 0},
	{Expr: `that have\s+([^\s,]+)`, Group: 0},
	{Expr: `mentioning\s+([^\s,]+)`, Group: 0},

	{Expr: `contendo\s+([^\s,]+)`, Group: 0},
	{Expr: `com\s+([^\s,]+)`, Group: 0},
	{Expr: `mencionando\s+([^\s,]+)`, Group: 0},
	{Expr: `documento\s+([^?]+)`, Group: 0},
	{Expr: `no\s+documento\s+([^?]+)`, Group: 0},
	{Expr: `do\s+documento\s+([^?]+)`, Group: 0},
	{Expr: `da\s+documento\s+([^?]+)`, Group: 0},
	{Expr: `com\s+base\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `baseado\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `baseada\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `apresentadas?\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `apresentados?\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `contidas?\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `contidos?\s+(no|na)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `segundo\s+(o|a)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `conforme\s+(o|a)\s+documento\s+([^?]+)`, Group: 1},
	{Expr: `de\s+acordo\s+com\s+(o|a)\s+documento\s+([^?]+)`, Group: 1},

	{Expr: `que\s+(tem|tenha|inclui|inclua)\s+([^\s,]+)`, Group: 1},
	{Expr: `falando\s+(sobre|de)\s+([^\s,]+)`, Group: 1},
	{Expr: `resumo\s+(de|sobre)\s+([^\s,]+)`, Group: 1},
	{Expr: `analise\s+(de|sobre)\s+([^\s,]+)`, Group: 1},
}
