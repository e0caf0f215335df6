// Package extract converts vault documents into plain text for chunking
// and embedding. It handles Markdown (goldmark AST), HTML (converted to
// Markdown first), DOCX and XLSX (OOXML archives), legacy XLS workbooks,
// PDF, and plain text.
//
// Extraction is deterministic: the same file bytes always produce the same
// text, which the chunker depends on for stable chunk identities.
package extract
