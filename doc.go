// Package docquery answers natural-language questions about documents.
//
// A document is ingested once: chunked, embedded, and indexed for both
// dense and TF-IDF retrieval. Questions then run a narrowing cascade of
// dense retrieval, hybrid fusion, and model reranking, and the surviving
// passages are assembled into a cited answer with a calibrated confidence
// score. See Engine for the entry point.
package docquery
