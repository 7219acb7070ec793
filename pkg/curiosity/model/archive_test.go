package model

import "testing"

func sampleEpisode() BuiltEpisode {
	return BuiltEpisode{
		ID:     EpisodeID(SeasonMarielda, 7),
		Season: SeasonMarielda,
		DocsID: "doc-123",
		Slug:   "the-road-to-ankhar",
		Title:  "The Road to Ankhar",
		Text:   "Hello there. General Kenobi.",
		Sentences: []BuiltSentence{
			{
				Author:          SpeakerAustin,
				StartInOriginal: 0,
				Len:             12,
				Tokens: []Token{
					{Start: 0, End: 5, TermID: 101},
					{Start: 6, End: 11, TermID: 102},
				},
			},
			{
				Author:          SpeakerBrennan,
				StartInOriginal: 13,
				Len:             15,
				Tokens: []Token{
					{Start: 0, End: 7, TermID: 103},
					{Start: 8, End: 14, TermID: 104},
				},
			},
		},
	}
}

func TestArchiveDecodeRoundTrip(t *testing.T) {
	ep := sampleEpisode()
	buf := Archive(ep)

	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if a.EpisodeID != ep.ID {
		t.Errorf("EpisodeID = %d, want %d", a.EpisodeID, ep.ID)
	}
	if a.Season != ep.Season {
		t.Errorf("Season = %d, want %d", a.Season, ep.Season)
	}
	if a.DocsID != ep.DocsID {
		t.Errorf("DocsID = %q, want %q", a.DocsID, ep.DocsID)
	}
	if a.Slug != ep.Slug {
		t.Errorf("Slug = %q, want %q", a.Slug, ep.Slug)
	}
	if a.Title != ep.Title {
		t.Errorf("Title = %q, want %q", a.Title, ep.Title)
	}
	if a.Text != ep.Text {
		t.Errorf("Text = %q, want %q", a.Text, ep.Text)
	}
	if len(a.Sentences) != len(ep.Sentences) {
		t.Fatalf("len(Sentences) = %d, want %d", len(a.Sentences), len(ep.Sentences))
	}

	for i, wantS := range ep.Sentences {
		gotS := a.Sentences[i]
		if gotS.Author != wantS.Author {
			t.Errorf("sentence %d Author = %d, want %d", i, gotS.Author, wantS.Author)
		}
		if gotS.StartInOriginal != wantS.StartInOriginal {
			t.Errorf("sentence %d StartInOriginal = %d, want %d", i, gotS.StartInOriginal, wantS.StartInOriginal)
		}
		if gotS.TokenCount() != len(wantS.Tokens) {
			t.Fatalf("sentence %d TokenCount = %d, want %d", i, gotS.TokenCount(), len(wantS.Tokens))
		}
		for j, wantTok := range wantS.Tokens {
			start, end, termID := gotS.Token(j)
			if start != wantTok.Start || end != wantTok.End || termID != wantTok.TermID {
				t.Errorf("sentence %d token %d = (%d,%d,%d), want (%d,%d,%d)",
					i, j, start, end, termID, wantTok.Start, wantTok.End, wantTok.TermID)
			}
		}
	}
}

// TestTokensByPositionOrdering checks the invariant that tokens within a
// sentence are stored in nondecreasing start-offset order, matching the
// order the tokenizer produced them in.
func TestTokensByPositionOrdering(t *testing.T) {
	ep := sampleEpisode()
	buf := Archive(ep)
	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for i, s := range a.Sentences {
		prevStart := uint32(0)
		for j := 0; j < s.TokenCount(); j++ {
			start, _, _ := s.Token(j)
			if j > 0 && start < prevStart {
				t.Errorf("sentence %d token %d start %d precedes previous token's start %d", i, j, start, prevStart)
			}
			prevStart = start
		}
	}
}

// TestTermsByPositionMatchesTokens checks terms_by_position[i] ==
// tokens_by_position[i].term_id for every token in every sentence.
func TestTermsByPositionMatchesTokens(t *testing.T) {
	ep := sampleEpisode()
	buf := Archive(ep)
	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for i, s := range a.Sentences {
		for j := 0; j < s.TokenCount(); j++ {
			_, _, termID := s.Token(j)
			if got := s.TermAt(j); got != termID {
				t.Errorf("sentence %d TermAt(%d) = %d, want %d (from Token)", i, j, got, termID)
			}
		}
	}
}

func TestTermsByPositionPacksTermIDs(t *testing.T) {
	ep := sampleEpisode()
	buf := Archive(ep)
	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for i, s := range a.Sentences {
		col := s.TermsByPosition()
		if len(col) != s.TokenCount()*4 {
			t.Fatalf("sentence %d TermsByPosition length = %d, want %d", i, len(col), s.TokenCount()*4)
		}
		for j := 0; j < s.TokenCount(); j++ {
			got := binaryLittleEndianUint32(col[j*4:])
			if got != s.TermAt(j) {
				t.Errorf("sentence %d TermsByPosition[%d] = %d, want %d", i, j, got, s.TermAt(j))
			}
		}
	}
}

func binaryLittleEndianUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	ep := sampleEpisode()
	buf := Archive(ep)

	for _, n := range []int{0, 1, 8, len(buf) / 2} {
		if _, err := Decode(buf[:n]); err == nil {
			t.Errorf("Decode(buf[:%d]) = nil error, want truncation error", n)
		}
	}
}

func TestArchiveEmptyEpisode(t *testing.T) {
	ep := BuiltEpisode{
		ID:     EpisodeID(SeasonOther, 1),
		Season: SeasonOther,
		Slug:   "empty",
		Title:  "Empty",
		Text:   "",
	}
	buf := Archive(ep)
	a, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.Text != "" {
		t.Errorf("Text = %q, want empty", a.Text)
	}
	if len(a.Sentences) != 0 {
		t.Errorf("len(Sentences) = %d, want 0", len(a.Sentences))
	}
}
