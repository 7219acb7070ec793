// Package highlight finds and marks matched spans within one archived
// sentence, operating entirely over its zero-copy byte view. No
// SIMD-accelerated substring search library exists anywhere in the
// example corpus this package was built from, so it uses stdlib
// bytes.Index directly over the packed terms_by_position column — an
// explicitly sanctioned fallback when a faster finder isn't available.
package highlight

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/atthetable/curiosity/pkg/curiosity/model"
)

// Span is one piece of a highlighted sentence: either plain text or text
// that matched the query.
type Span struct {
	Text        string
	Highlighted bool
}

// span is a sentence-local byte range, half-open [Start, End).
type span struct {
	Start, End uint32
}

// Highlight finds every match of termIDs within sentence and returns the
// sentence's text as an alternating sequence of Normal/Highlighted spans.
// ok is false if the sentence has no match at all, in which case spans is
// nil. documentText is the full transcript the sentence's offsets index
// into.
func Highlight(sentence model.ArchivedSentence, termIDs []uint32, documentText string, isPhrase bool) (spans []Span, ok bool) {
	var ranges []span
	if isPhrase {
		ranges, ok = phraseRanges(sentence, termIDs)
	} else {
		ranges, ok = keywordRanges(sentence, termIDs)
	}
	if !ok {
		return nil, false
	}

	if !isPhrase {
		ranges = collapseOverlaps(ranges)
	}

	return emitSpans(sentence, ranges, documentText), true
}

// keywordRanges finds every 4-byte-aligned occurrence of each term ID in
// the sentence's terms_by_position column, independently per term, and
// returns their token spans sorted by start ascending (possibly
// overlapping across terms; the caller collapses overlaps).
func keywordRanges(sentence model.ArchivedSentence, termIDs []uint32) ([]span, bool) {
	haystack := sentence.TermsByPosition()

	var ranges []span
	for _, termID := range termIDs {
		needle := encodeTermID(termID)
		for _, idx := range findAllAligned(haystack, needle, 4) {
			tokenIdx := idx / 4
			start, end, _ := sentence.Token(tokenIdx)
			ranges = append(ranges, span{Start: start, End: end})
		}
	}
	if len(ranges) == 0 {
		return nil, false
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges, true
}

// phraseRanges finds every 4-byte-aligned occurrence of the concatenated
// term-ID sequence in the sentence's terms_by_position column. Each hit
// spans the contiguous run of tokens[idx .. idx+len(termIDs)-1].
func phraseRanges(sentence model.ArchivedSentence, termIDs []uint32) ([]span, bool) {
	if len(termIDs) == 0 {
		return nil, false
	}
	haystack := sentence.TermsByPosition()

	needle := make([]byte, len(termIDs)*4)
	for i, id := range termIDs {
		binary.LittleEndian.PutUint32(needle[i*4:], id)
	}

	var ranges []span
	for _, idx := range findAllAligned(haystack, needle, 4) {
		firstTok := idx / 4
		lastTok := firstTok + len(termIDs) - 1
		start, _, _ := sentence.Token(firstTok)
		_, end, _ := sentence.Token(lastTok)
		ranges = append(ranges, span{Start: start, End: end})
	}
	if len(ranges) == 0 {
		return nil, false
	}
	return ranges, true
}

func encodeTermID(termID uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, termID)
	return b
}

// findAllAligned returns every byte offset in haystack where needle
// occurs on an align-byte boundary. After a hit the search resumes past
// the whole needle, so hits never overlap.
func findAllAligned(haystack, needle []byte, align int) []int {
	var hits []int
	if len(needle) == 0 {
		return hits
	}
	start := 0
	for {
		idx := bytes.Index(haystack[start:], needle)
		if idx < 0 {
			break
		}
		abs := start + idx
		if abs%align == 0 {
			hits = append(hits, abs)
			start = abs + len(needle)
		} else {
			start = abs + 1
		}
	}
	return hits
}

// collapseOverlaps folds overlapping ranges into one, walking the sorted
// input and extending the current range whenever the next one starts
// before the current one ends. Ranges that merely touch stay separate.
func collapseOverlaps(ranges []span) []span {
	if len(ranges) == 0 {
		return ranges
	}
	collapsed := make([]span, 0, len(ranges))
	current := ranges[0]
	for _, next := range ranges[1:] {
		if current.End > next.Start {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		collapsed = append(collapsed, current)
		current = next
	}
	collapsed = append(collapsed, current)
	return collapsed
}

// emitSpans walks the collapsed ranges in order, alternating Normal and
// Highlighted spans so the result reconstitutes the sentence exactly on
// concatenation.
func emitSpans(sentence model.ArchivedSentence, ranges []span, documentText string) []Span {
	var spans []Span
	cursor := uint32(0)
	base := sentence.StartInOriginal

	for _, r := range ranges {
		if cursor < r.Start {
			spans = append(spans, Span{Text: documentText[base+cursor : base+r.Start], Highlighted: false})
		}
		spans = append(spans, Span{Text: documentText[base+r.Start : base+r.End], Highlighted: true})
		cursor = r.End
	}
	if cursor < sentence.Len {
		spans = append(spans, Span{Text: documentText[base+cursor : base+sentence.Len], Highlighted: false})
	}
	return spans
}
