package model

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Token is one token's position in the original sentence text plus the
// term ID the tokenizer assigned it.
type Token struct {
	Start  uint32 // byte offset into the sentence's slice of the transcript
	End    uint32 // exclusive byte offset
	TermID uint32
}

// BuiltSentence is a sentence as produced by the tokenizer, ready to be
// archived into a StoredEpisode's byte layout.
type BuiltSentence struct {
	Author          Speaker
	StartInOriginal uint32 // byte offset into the full transcript
	Len             uint32 // byte length of the sentence in the transcript
	Tokens          []Token
}

// BuiltEpisode is the fully tokenized form of an episode, ready for
// archiving into the forward store.
type BuiltEpisode struct {
	ID        uint64
	Season    SeasonID
	DocsID    string
	Slug      string
	Title     string
	Text      string
	Sentences []BuiltSentence
}

// Archive packs a BuiltEpisode into the little-endian, allocation-free
// record layout the forward store persists. The layout is:
//
//	uint64  EpisodeID
//	uint8   SeasonCode
//	uint16  DocsIDLen   \
//	uint16  SlugLen      | followed immediately by their bytes, in order
//	uint16  TitleLen    /
//	uint32  TextLen     -- followed by the transcript bytes
//	uint32  SentenceCount
//	then, for each sentence:
//	  uint8   Author
//	  uint32  StartInOriginal
//	  uint32  Len
//	  uint32  TokenCount
//	  [TokenCount]{uint32 Start, uint32 End, uint32 TermID}  -- tokens_by_position
//	  [TokenCount]{uint32 TermID}                            -- terms_by_position
//
// terms_by_position duplicates the term-ID column already present inside
// tokens_by_position, at a cost of 4 bytes per token, so the highlighter
// can search it as one contiguous packed []byte rather than striding
// through 12-byte token records — the same tradeoff a production
// substring-search-accelerated engine makes.
func Archive(ep BuiltEpisode) []byte {
	size := 8 + 1 + 2 + 2 + 2 + len(ep.DocsID) + len(ep.Slug) + len(ep.Title) +
		4 + len(ep.Text) + 4
	for _, s := range ep.Sentences {
		size += 1 + 4 + 4 + 4 + len(s.Tokens)*16
	}

	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], ep.ID)
	off += 8
	buf[off] = byte(ep.Season)
	off++
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(ep.DocsID)))
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(ep.Slug)))
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], uint16(len(ep.Title)))
	off += 2
	copy(buf[off:], ep.DocsID)
	off += len(ep.DocsID)
	copy(buf[off:], ep.Slug)
	off += len(ep.Slug)
	copy(buf[off:], ep.Title)
	off += len(ep.Title)

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(ep.Text)))
	off += 4
	copy(buf[off:], ep.Text)
	off += len(ep.Text)

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(ep.Sentences)))
	off += 4

	for _, s := range ep.Sentences {
		buf[off] = byte(s.Author)
		off++
		binary.LittleEndian.PutUint32(buf[off:], s.StartInOriginal)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], s.Len)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(s.Tokens)))
		off += 4
		for _, tok := range s.Tokens {
			binary.LittleEndian.PutUint32(buf[off:], tok.Start)
			off += 4
			binary.LittleEndian.PutUint32(buf[off:], tok.End)
			off += 4
			binary.LittleEndian.PutUint32(buf[off:], tok.TermID)
			off += 4
		}
		for _, tok := range s.Tokens {
			binary.LittleEndian.PutUint32(buf[off:], tok.TermID)
			off += 4
		}
	}

	return buf
}

// ArchivedSentence is a zero-copy view over one sentence inside an
// Archived record. Its byte slices reference the buffer the Archived was
// decoded from; they must not be retained past the lifetime of that
// buffer (in practice, the open bbolt read transaction that owns it).
type ArchivedSentence struct {
	Author          Speaker
	StartInOriginal uint32
	Len             uint32
	tokens          []byte // TokenCount * 12 raw bytes: {start,end,termID} LE (tokens_by_position)
	terms           []byte // TokenCount * 4 raw bytes: termID LE (terms_by_position)
}

// TokenCount reports how many tokens the sentence has.
func (s ArchivedSentence) TokenCount() int { return len(s.terms) / 4 }

// Token returns the i'th token's span and term ID without allocating.
func (s ArchivedSentence) Token(i int) (start, end, termID uint32) {
	b := s.tokens[i*12:]
	return binary.LittleEndian.Uint32(b),
		binary.LittleEndian.Uint32(b[4:]),
		binary.LittleEndian.Uint32(b[8:])
}

// TermAt returns the i'th token's term ID as read from the
// terms_by_position column, independent of Token's own copy of the same
// value (the two must agree; see the round-trip test).
func (s ArchivedSentence) TermAt(i int) uint32 {
	return binary.LittleEndian.Uint32(s.terms[i*4:])
}

// TermsByPosition returns the packed, little-endian term-ID column for
// this sentence: a zero-copy []byte of length TokenCount()*4, suitable
// for a byte-substring search over 4-byte-aligned term IDs.
func (s ArchivedSentence) TermsByPosition() []byte { return s.terms }

// Archived is a zero-copy view over one Archive-encoded record. Decode
// does not copy the transcript text or the per-sentence token tables; it
// only walks the fixed-size headers once to build the Sentences index,
// which is O(sentence count), not O(token count) or O(byte length).
//
// The string and slice fields alias the input buffer directly (via
// unsafe.String over reslices of buf). They are valid only as long as buf
// is valid — callers must not retain an Archived, or anything derived
// from it, past the scope of the read transaction that produced buf.
type Archived struct {
	EpisodeID uint64
	Season    SeasonID
	DocsID    string
	Slug      string
	Title     string
	Text      string
	Sentences []ArchivedSentence
}

// Decode builds a zero-copy Archived view over buf. It returns an error
// if buf is shorter than its own declared header sizes, which would
// indicate a corrupted or truncated forward-store record.
func Decode(buf []byte) (*Archived, error) {
	const headerLen = 8 + 1 + 2 + 2 + 2
	if len(buf) < headerLen {
		return nil, fmt.Errorf("model: archived record truncated: have %d bytes, want at least %d", len(buf), headerLen)
	}

	a := &Archived{}
	off := 0

	a.EpisodeID = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	a.Season = SeasonID(buf[off])
	off++
	docsIDLen := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	slugLen := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2
	titleLen := int(binary.LittleEndian.Uint16(buf[off:]))
	off += 2

	need := off + docsIDLen + slugLen + titleLen + 4
	if len(buf) < need {
		return nil, fmt.Errorf("model: archived record truncated in metadata: have %d bytes, want at least %d", len(buf), need)
	}

	a.DocsID = bytesToString(buf[off : off+docsIDLen])
	off += docsIDLen
	a.Slug = bytesToString(buf[off : off+slugLen])
	off += slugLen
	a.Title = bytesToString(buf[off : off+titleLen])
	off += titleLen

	textLen := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if len(buf) < off+textLen+4 {
		return nil, fmt.Errorf("model: archived record truncated in transcript: have %d bytes, want at least %d", len(buf), off+textLen+4)
	}
	a.Text = bytesToString(buf[off : off+textLen])
	off += textLen

	sentenceCount := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	a.Sentences = make([]ArchivedSentence, 0, sentenceCount)
	for i := 0; i < sentenceCount; i++ {
		if len(buf) < off+1+4+4+4 {
			return nil, fmt.Errorf("model: archived record truncated at sentence %d header", i)
		}
		var s ArchivedSentence
		s.Author = Speaker(buf[off])
		off++
		s.StartInOriginal = binary.LittleEndian.Uint32(buf[off:])
		off += 4
		s.Len = binary.LittleEndian.Uint32(buf[off:])
		off += 4
		tokenCount := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4

		tokensLen := tokenCount * 12
		termsLen := tokenCount * 4
		if len(buf) < off+tokensLen+termsLen {
			return nil, fmt.Errorf("model: archived record truncated at sentence %d tokens", i)
		}
		s.tokens = buf[off : off+tokensLen]
		off += tokensLen
		s.terms = buf[off : off+termsLen]
		off += termsLen

		a.Sentences = append(a.Sentences, s)
	}

	return a, nil
}

// bytesToString views b as a string without copying. Safe here because
// the caller (Decode) never mutates buf afterward, and the lifetime
// constraint on the resulting string is already documented on Archived.
func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
