// Package rank provides the scoring primitives for FAQ matching.
//
// Each primitive is a pure function over already-normalized inputs:
//
//   - [TextSimilarity]: Jaccard word overlap blended with Levenshtein
//     ratio, with a substring shortcut
//   - [KeywordMatch]: tag coverage of a user query
//   - [BM25Score]: BM25 with single-document or collection IDF
//   - [Cosine]: cosine similarity over dense embeddings
//   - [TagBoost]: additive bonus from query-tag / FAQ-tag overlap
//
// The pipeline in pkg/match composes these into the configured ranking
// variant; nothing in this package sorts, thresholds or decides.
//
// # Collection statistics
//
// [CorpusStats] is the one piece of derived state: an immutable
// document-frequency table built per corpus snapshot for collection-mode
// IDF. Build a fresh table when the corpus changes and swap the pointer;
// tables are never mutated after construction, so concurrent readers
// need no locking.
package rank
