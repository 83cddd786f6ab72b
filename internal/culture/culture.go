// Package culture holds the localisation parameters used to write and voice
// scripts for each supported language.
package culture

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported language tag. Generic is the named fallback for any
// tag outside the table.
type Language string

const (
	PortugueseBR Language = "pt-BR"
	EnglishUS    Language = "en-US"
	SpanishES    Language = "es-ES"
	FrenchFR     Language = "fr-FR"
	GermanDE     Language = "de-DE"
	ItalianIT    Language = "it-IT"

	Generic Language = "generic"
)

// DefaultRequestLanguage is used when a request leaves the language empty.
const DefaultRequestLanguage = PortugueseBR

// Profile is the cultural context a script is written in.
type Profile struct {
	Language    Language `json:"language"`
	ExampleName string   `json:"example_name"`
	Setting     string   `json:"setting"`
	Expressions []string `json:"expressions"`
	Voice       string   `json:"voice"`
}

var supported = []Language{PortugueseBR, EnglishUS, SpanishES, FrenchFR, GermanDE, ItalianIT}

var profiles = map[Language]Profile{
	PortugueseBR: {
		Language:    PortugueseBR,
		ExampleName: "João",
		Setting:     "no Brasil, em uma favela do Rio de Janeiro",
		Expressions: []string{"mano", "cara", "tipo assim", "saca?"},
		Voice:       "alloy",
	},
	EnglishUS: {
		Language:    EnglishUS,
		ExampleName: "Mike",
		Setting:     "in New York City, downtown Manhattan",
		Expressions: []string{"dude", "like", "you know", "literally"},
		Voice:       "echo",
	},
	SpanishES: {
		Language:    SpanishES,
		ExampleName: "Carlos",
		Setting:     "en Madrid, España, en el barrio de Malasaña",
		Expressions: []string{"tío", "vale", "ostras", "flipante"},
		Voice:       "fable",
	},
	FrenchFR: {
		Language:    FrenchFR,
		ExampleName: "Pierre",
		Setting:     "à Paris, dans le Marais",
		Expressions: []string{"putain", "grave", "en fait", "voilà"},
		Voice:       "onyx",
	},
	GermanDE: {
		Language:    GermanDE,
		ExampleName: "Hans",
		Setting:     "in Berlin, Deutschland, in Kreuzberg",
		Expressions: []string{"krass", "echt", "genau", "halt"},
		Voice:       "nova",
	},
	ItalianIT: {
		Language:    ItalianIT,
		ExampleName: "Marco",
		Setting:     "a Roma, Italia, nel quartiere Trastevere",
		Expressions: []string{"dai", "boh", "cioè", "vabbè"},
		Voice:       "shimmer",
	},
}

// Parse maps a client supplied tag to a supported Language. Tags are
// canonicalised first, so "pt-br" and "PT-BR" resolve to PortugueseBR.
// Anything else yields Generic.
func Parse(tag string) Language {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Generic
	}
	if _, ok := profiles[Language(tag)]; ok {
		return Language(tag)
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return Generic
	}
	if _, ok := profiles[Language(parsed.String())]; ok {
		return Language(parsed.String())
	}
	return Generic
}

// Supported reports whether l has its own profile.
func (l Language) Supported() bool {
	_, ok := profiles[l]
	return ok
}

// Profile returns the profile for l. Generic and unknown values get the
// en-US profile.
func (l Language) Profile() Profile {
	if p, ok := profiles[l]; ok {
		return clone(p)
	}
	return clone(profiles[EnglishUS])
}

// Lookup is Parse followed by Profile.
func Lookup(tag string) Profile {
	return Parse(tag).Profile()
}

// All returns the supported profiles in a stable order.
func All() []Profile {
	out := make([]Profile, 0, len(supported))
	for _, l := range supported {
		out = append(out, clone(profiles[l]))
	}
	return out
}

func clone(p Profile) Profile {
	p.Expressions = append([]string(nil), p.Expressions...)
	return p
}
