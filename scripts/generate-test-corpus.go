//go:build ignore

// Package main generates a synthetic vault corpus for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of notes to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Note templates shaped after typical Obsidian vaults: frontmatter,
// wiki links, headings, the occasional code fence and task list.
var noteTemplate = `---
title: %s
tags: [%s, %s]
created: %s
---

# %s

%s is a recurring theme in my notes on %s. The core idea connects to
[[%s]] and builds on what I wrote in [[%s]].

## Key points

- %s matters most when the %s is unclear
- Compare with the approach described in [[%s]]
- Revisit after reading more about %s

## Details

%s

The relationship between %s and %s deserves its own note. For now the
working assumption is that %s drives the outcome and %s is a side
effect.

> %s

## Open questions

- [ ] How does %s interact with %s?
- [ ] Find a primary source for the claim about %s
- [x] Link this note from [[%s]]
`

var dailyTemplate = `---
date: %s
tags: [daily]
---

# %s

## Log

- Worked on [[%s]] most of the morning
- Quick call about %s, notes in [[%s]]
- Read a chapter on %s

## Thoughts

%s

Tomorrow: continue with [[%s]], then review the %s notes.
`

var referenceTemplate = `---
title: %s
tags: [reference, %s]
source: https://example.com/%s
---

# %s

Reference notes on %s.

## Summary

%s

## Quotes

> %s

> The distinction between %s and %s is less important than it first
> appears.

## Related

- [[%s]]
- [[%s]]
`

var projectTemplate = `---
title: %s
tags: [project]
status: %s
---

# Project: %s

Goal: get a working understanding of %s and write it up.

## Tasks

- [x] Collect sources on %s
- [ ] Draft the overview section
- [ ] Cross-link with [[%s]] and [[%s]]

## Notes

%s

### Snippet

` + "```" + `
%s: %s
status: in progress
` + "```" + `
`

// Word pools for generating plausible note topics
var (
	topics = []string{
		"Spaced Repetition", "Zettelkasten", "Deep Work", "Note Taking",
		"Knowledge Graphs", "Memory Palaces", "Habit Formation", "Stoicism",
		"Systems Thinking", "Decision Making", "Mental Models", "Writing",
		"Reading Strategies", "Time Blocking", "Attention", "Learning",
		"Gardening", "Fermentation", "Photography", "Bouldering",
		"Distributed Systems", "Vector Search", "Embeddings", "Compilers",
		"Type Systems", "Databases", "Networking", "Cryptography",
	}
	concepts = []string{
		"retrieval", "consolidation", "abstraction", "feedback", "friction",
		"emergence", "leverage", "compounding", "entropy", "resonance",
		"locality", "latency", "throughput", "recall", "precision",
	}
	tags = []string{
		"learning", "productivity", "engineering", "philosophy", "health",
		"research", "writing", "tools", "ideas", "review",
	}
	statuses = []string{"active", "paused", "someday"}

	sentences = []string{
		"The more I revisit this the less certain I am about the framing.",
		"Most of the value comes from the links, not the note itself.",
		"This keeps coming up in unrelated contexts, which is a good sign.",
		"A smaller scope would have made this much easier to finish.",
		"The original source overstates the effect but the mechanism is real.",
		"Worth rereading in six months to see if it still holds up.",
		"The analogy breaks down under load but works for intuition.",
		"I keep conflating two separate ideas here and should split the note.",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"notes", "daily", "references", "projects"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d notes in %s...\n", *numFiles, *outputDir)

	// Distribute files across note types
	noteFiles := *numFiles * 50 / 100 // 50% permanent notes
	dailyFiles := *numFiles * 25 / 100
	refFiles := *numFiles * 15 / 100
	projFiles := *numFiles - noteFiles - dailyFiles - refFiles

	generated := 0

	for i := 0; i < noteFiles; i++ {
		if err := generateNote(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating note %d: %v\n", i, err)
		}
		generated++
	}
	for i := 0; i < dailyFiles; i++ {
		if err := generateDaily(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating daily note %d: %v\n", i, err)
		}
		generated++
	}
	for i := 0; i < refFiles; i++ {
		if err := generateReference(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating reference %d: %v\n", i, err)
		}
		generated++
	}
	for i := 0; i < projFiles; i++ {
		if err := generateProject(rng, i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating project %d: %v\n", i, err)
		}
		generated++
	}

	fmt.Printf("Generated %d notes successfully.\n", generated)
}

func randomWord(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func paragraph(rng *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = randomWord(rng, sentences)
	}
	return strings.Join(parts, " ")
}

func generateNote(rng *rand.Rand, index int) error {
	topic := randomWord(rng, topics)
	created := time.Date(2024, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)

	content := fmt.Sprintf(noteTemplate,
		topic,
		randomWord(rng, tags), randomWord(rng, tags),
		created.Format("2006-01-02"),
		topic,
		topic, randomWord(rng, concepts),
		randomWord(rng, topics), randomWord(rng, topics),
		randomWord(rng, concepts), randomWord(rng, concepts),
		randomWord(rng, topics), randomWord(rng, concepts),
		paragraph(rng, 3),
		randomWord(rng, concepts), randomWord(rng, concepts),
		randomWord(rng, concepts), randomWord(rng, concepts),
		randomWord(rng, sentences),
		topic, randomWord(rng, concepts),
		randomWord(rng, concepts),
		randomWord(rng, topics),
	)

	filename := filepath.Join(*outputDir, "notes", fmt.Sprintf("%s %d.md", topic, index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateDaily(rng *rand.Rand, index int) error {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, index)
	date := day.Format("2006-01-02")

	content := fmt.Sprintf(dailyTemplate,
		date,
		date,
		randomWord(rng, topics),
		randomWord(rng, concepts), randomWord(rng, topics),
		randomWord(rng, topics),
		paragraph(rng, 2),
		randomWord(rng, topics), randomWord(rng, concepts),
	)

	filename := filepath.Join(*outputDir, "daily", date+".md")
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateReference(rng *rand.Rand, index int) error {
	topic := randomWord(rng, topics)
	slug := strings.ToLower(strings.ReplaceAll(topic, " ", "-"))

	content := fmt.Sprintf(referenceTemplate,
		topic,
		randomWord(rng, tags), slug,
		topic,
		randomWord(rng, concepts),
		paragraph(rng, 3),
		randomWord(rng, sentences),
		randomWord(rng, concepts), randomWord(rng, concepts),
		randomWord(rng, topics), randomWord(rng, topics),
	)

	filename := filepath.Join(*outputDir, "references", fmt.Sprintf("%s %d.md", topic, index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateProject(rng *rand.Rand, index int) error {
	topic := randomWord(rng, topics)

	content := fmt.Sprintf(projectTemplate,
		topic,
		randomWord(rng, statuses),
		topic,
		randomWord(rng, concepts),
		topic,
		randomWord(rng, topics), randomWord(rng, topics),
		paragraph(rng, 2),
		randomWord(rng, concepts), randomWord(rng, concepts),
	)

	filename := filepath.Join(*outputDir, "projects", fmt.Sprintf("%s %d.md", topic, index))
	return os.WriteFile(filename, []byte(content), 0644)
}
