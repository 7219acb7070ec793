// Package tokenize splits a transcript into sentences and tokens using
// the pipeline shared with the text index's analyzer, and assigns the
// build-scoped term IDs the term dictionary is built from. It is a
// narrow descendant of the teacher's ingest.Tokenizer, adapted to
// produce positioned tokens grouped into sentences instead of a flat
// list of words.
package tokenize

import (
	"bufio"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
)

// TermMap is the mutable, build-scoped map from term text to term ID.
// One TermMap is created per index rebuild and threaded through every
// episode's tokenization so term IDs are assigned consistently across
// the whole corpus.
type TermMap struct {
	ids  map[string]uint32
	next uint32
}

// NewTermMap returns a TermMap seeded with the bootstrap entry {" ": 0},
// matching the term dictionary's own bootstrap state.
func NewTermMap() *TermMap {
	m := &TermMap{ids: map[string]uint32{" ": 0}, next: 1}
	return m
}

// IDFor returns text's term ID, assigning the next free ID if text has
// not been seen yet in this build.
func (m *TermMap) IDFor(text string) uint32 {
	if id, ok := m.ids[text]; ok {
		return id
	}
	id := m.next
	m.ids[text] = id
	m.next++
	return id
}

// Sorted returns the map's entries as parallel slices, keys sorted in
// ascending byte order, ready for termdict.Build.
func (m *TermMap) Sorted() (keys []string, ids []uint32) {
	keys = make([]string, 0, len(m.ids))
	for k := range m.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ids = make([]uint32, len(keys))
	for i, k := range keys {
		ids[i] = m.ids[k]
	}
	return keys, ids
}

// SentenceBuilder splits transcript text into sentences and tokenizes
// each one with the shared analyzer.
type SentenceBuilder struct {
	analyzer *analysis.DefaultAnalyzer
	speakers *alias.Table
}

// NewSentenceBuilder returns a SentenceBuilder using the shared analyzer
// pipeline and the given speaker alias table.
func NewSentenceBuilder(speakers *alias.Table) *SentenceBuilder {
	return &SentenceBuilder{analyzer: NewAnalyzer(), speakers: speakers}
}

// Build splits text into one Sentence per line, tokenizes each line with
// the shared analyzer, assigns term IDs via terms, and resolves each
// line's speaker. It returns the sentence list in line order.
func (b *SentenceBuilder) Build(text string, terms *TermMap) ([]model.BuiltSentence, error) {
	var sentences []model.BuiltSentence

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	offset := uint32(0)
	for scanner.Scan() {
		line := scanner.Text()
		lineLen := uint32(len(line))

		tokens := b.tokenizeLine(line, terms)
		speaker := b.detectSpeaker(line)

		sentences = append(sentences, model.BuiltSentence{
			Author:          speaker,
			StartInOriginal: offset,
			Len:             lineLen,
			Tokens:          tokens,
		})

		// +1 for the newline the scanner consumed but did not include.
		offset += lineLen + 1
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sentences, nil
}

func (b *SentenceBuilder) tokenizeLine(line string, terms *TermMap) []model.Token {
	stream := b.analyzer.Analyze([]byte(line))

	tokens := make([]model.Token, 0, len(stream))
	for _, tok := range stream {
		termID := terms.IDFor(string(tok.Term))
		tokens = append(tokens, model.Token{
			Start:  uint32(tok.Start),
			End:    uint32(tok.End),
			TermID: termID,
		})
	}

	// The analyzer may emit positions out of order for certain filters;
	// tokens_by_position must be start-ascending.
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })

	return tokens
}

// detectSpeaker takes the line's prefix up to the first ':', the first
// whitespace-delimited word of that prefix, lowercases it, and resolves
// it against the speaker alias table. No match (including no ':' at all)
// resolves to model.SpeakerUnknown.
func (b *SentenceBuilder) detectSpeaker(line string) model.Speaker {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return model.SpeakerUnknown
	}

	prefix := line[:colon]
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return model.SpeakerUnknown
	}

	name := b.speakers.Canonicalize(strings.ToLower(fields[0]))
	if sp, ok := model.SpeakerByName(name); ok {
		return sp
	}
	return model.SpeakerUnknown
}
