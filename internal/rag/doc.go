// Package rag composes the retrieval-augmented generation pipeline:
// document ingestion (chunk, embed, store), similarity-based context
// assembly, and the grounded streaming chat orchestrator.
package rag
