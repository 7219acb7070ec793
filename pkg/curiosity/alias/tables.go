package alias

import "github.com/atthetable/curiosity/pkg/curiosity/model"

// Seasons returns the canonicalizing table for season slugs: every
// model.SeasonID's canonical slug, plus a handful of alternate spellings
// seen in source transcripts (abbreviations, alternate punctuation).
func Seasons() *Table {
	t := New()
	t.Add(model.SeasonHomecoming.Slug())
	t.Add(model.SeasonMarielda.Slug(), "mary-elda")
	t.Add(model.SeasonMentopolis.Slug(), "mento-polis")
	t.Add(model.SeasonNeverafter.Slug(), "never-after", "never after")
	t.Add(model.SeasonFantasyHigh.Slug(), "fantasy high", "fhs")
	t.Add(model.SeasonUnsleepingCity.Slug(), "the unsleeping city", "unsleeping city")
	t.Add(model.SeasonPiratesOfLeviathan.Slug(), "pirates of leviathan", "leviathan")
	t.Add(model.SeasonTinyHeist.Slug(), "tiny heist")
	t.Add(model.SeasonCityOfDust.Slug(), "city of dust")
	t.Add(model.SeasonShriekWeek.Slug(), "shriek week")
	t.Add(model.SeasonStarstruckOdyssey.Slug(), "starstruck odyssey")
	t.Add(model.SeasonJuniorYear.Slug(), "junior year")
	t.Add(model.SeasonAdventuringParty.Slug(), "adventuring party")
	// The "Other" bucket's own canonical slug is intentionally the literal
	// "unknown-string" (see model.SeasonOther); "other" and "misc" are
	// common spellings seen in source metadata that should fold into it.
	t.Add(model.SeasonOther.Slug(), "other", "misc", "uncategorized")
	return t
}

// Speakers returns the canonicalizing table for cast member names.
func Speakers() *Table {
	t := New()
	t.Add(model.SpeakerAustin.Name(), "austin w")
	t.Add(model.SpeakerAli.Name(), "alison", "ali w")
	t.Add(model.SpeakerBrennan.Name(), "brennan lm", "brennan l.m.")
	t.Add(model.SpeakerEmily.Name(), "emily a", "em")
	t.Add(model.SpeakerLou.Name(), "louis", "lou w")
	t.Add(model.SpeakerMurph.Name(), "murphy", "murph t")
	t.Add(model.SpeakerSiobhan.Name(), "siobhan t", "shiv")
	t.Add(model.SpeakerZac.Name(), "zac o", "zachary")
	return t
}
