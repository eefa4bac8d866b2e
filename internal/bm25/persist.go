package bm25

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// snapshot is the gob-serializable shape of an Index. Load is atomic:
// gob either decodes every field or the whole load fails, so a partially
// written file never produces a partially usable Index (spec.md §4.1
// "Persistence").
type snapshot struct {
	Constants Constants
	Postings  map[string]map[string]int
	DocLen    map[string]int
	AvgDocLen float64
	DocCount  int
	Stopwords []string
}

// Save serializes idx to a single blob at path.
func (idx *Index) Save(path string) error {
	snap := snapshot{
		Constants: idx.constants,
		Postings:  idx.postings,
		DocLen:    idx.docLen,
		AvgDocLen: idx.avgDocLen,
		DocCount:  idx.docCount,
		Stopwords: idx.stopwords,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return fmt.Errorf("bm25: encode index: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("bm25: write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("bm25: finalize index: %w", err)
	}
	return nil
}

// Load reads and decodes a blob previously written by Save. The tokenizer
// is reconstructed from the persisted stopword list so build-time and
// load-time tokenization stay identical.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bm25: read index: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("bm25: decode index: %w", err)
	}

	return &Index{
		constants: snap.Constants,
		postings:  snap.Postings,
		docLen:    snap.DocLen,
		avgDocLen: snap.AvgDocLen,
		docCount:  snap.DocCount,
		stopwords: snap.Stopwords,
		tokenizer: NewTokenizer(snap.Stopwords),
	}, nil
}
