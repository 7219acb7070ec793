// Package model holds the corpus-wide data model: the closed SeasonID and
// Speaker enumerations, the input Episode/Season shapes, and the archived
// StoredEpisode record produced by the index builder and consumed
// zero-copy by the highlighter.
package model

import "strings"

// SeasonID is a closed enumeration of the 14 named seasons. The numeric
// value is stable: it appears inside EpisodeID and in the ranked text
// index's season fast field, so it must never be renumbered once assigned.
type SeasonID uint8

const (
	SeasonHomecoming SeasonID = iota
	SeasonMarielda
	SeasonMentopolis
	SeasonNeverafter
	SeasonFantasyHigh
	SeasonUnsleepingCity
	SeasonPiratesOfLeviathan
	SeasonTinyHeist
	SeasonCityOfDust
	SeasonShriekWeek
	SeasonStarstruckOdyssey
	SeasonJuniorYear
	SeasonAdventuringParty
	// SeasonOther is the catch-all bucket for episodes that predate or fall
	// outside the named-season scheme. Its serialised slug is the literal
	// string "unknown-string" (spec note, kept intentionally).
	SeasonOther

	seasonCount = int(SeasonOther) + 1
)

// seasonSlugs holds the canonical kebab-case slug for each SeasonID, indexed
// by its numeric value.
var seasonSlugs = [seasonCount]string{
	SeasonHomecoming:         "homecoming",
	SeasonMarielda:           "marielda",
	SeasonMentopolis:         "mentopolis",
	SeasonNeverafter:         "neverafter",
	SeasonFantasyHigh:        "fantasy-high",
	SeasonUnsleepingCity:     "unsleeping-city",
	SeasonPiratesOfLeviathan: "pirates-of-leviathan",
	SeasonTinyHeist:          "tiny-heist",
	SeasonCityOfDust:         "city-of-dust",
	SeasonShriekWeek:         "shriek-week",
	SeasonStarstruckOdyssey:  "starstruck-odyssey",
	SeasonJuniorYear:         "junior-year",
	SeasonAdventuringParty:   "adventuring-party",
	SeasonOther:              "unknown-string",
}

// Slug returns the canonical kebab-case slug for s. An out-of-range value
// returns the SeasonOther slug.
func (s SeasonID) Slug() string {
	if int(s) < 0 || int(s) >= seasonCount {
		return seasonSlugs[SeasonOther]
	}
	return seasonSlugs[s]
}

// Valid reports whether s is one of the 14 defined seasons.
func (s SeasonID) Valid() bool {
	return int(s) >= 0 && int(s) < seasonCount
}

// AllSeasons returns every defined SeasonID in ascending numeric order.
func AllSeasons() []SeasonID {
	out := make([]SeasonID, seasonCount)
	for i := range out {
		out[i] = SeasonID(i)
	}
	return out
}

// SeasonBySlug resolves a canonical slug back to a SeasonID. It trims and
// lowercases its input but does not resolve alternate spellings; alias
// resolution lives one layer up, in package alias.
func SeasonBySlug(slug string) (SeasonID, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for i, s := range seasonSlugs {
		if s == slug {
			return SeasonID(i), true
		}
	}
	return 0, false
}
