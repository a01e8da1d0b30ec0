// Package summarize gives clusters human names and groups them into
// parent categories.
//
// Both capabilities sit behind small interfaces, Summarizer and
// Categorizer. OpenAI implements them over the chat completions API and
// Stub implements them deterministically without I/O.
//
// Remote calls are slow and can fail. SummarizeAll runs them with bounded
// concurrency and replaces every failed summary with a synthetic one, and
// Group falls back to a single "Documentation" category, so a build never
// aborts because the service is unavailable.
package summarize
