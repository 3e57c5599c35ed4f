// Package generation provides interfaces and error types for interacting
// with external AI/LLM services that turn document pages and images into
// multiple-choice quiz records. It abstracts the details of LLM API
// integration (Gemini), allowing the processing pipeline to run without
// coupling to a specific external service.
package generation
