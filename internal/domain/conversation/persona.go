package conversation

import (
	"fmt"
	"strings"
)

type Persona string

const (
	PersonaGeneral     Persona = "general"
	PersonaPredictions Persona = "predictions"
	PersonaLiveOdds    Persona = "live_odds"
	PersonaBetting     Persona = "betting"
	PersonaSystem      Persona = "system"
)

// PersonaSpec describes how a persona is presented and primed.
// PromptTemplate receives the user name, tier and fixture context in that order.
type PersonaSpec struct {
	Title          string
	Description    string
	PromptTemplate string
	Selectable     bool
}

var personaSpecs = map[Persona]PersonaSpec{
	PersonaGeneral: {
		Title:          "Football assistant",
		Description:    "Questions about matches, teams and players",
		PromptTemplate: "New user %s with %s subscription. Introduce yourself as the Deep90 football expert.%s",
		Selectable:     true,
	},
	PersonaPredictions: {
		Title:          "Predictions",
		Description:    "Pre-match and in-play predictions",
		PromptTemplate: "User %s (%s subscription) wants match predictions. Base them on current form and live data.%s",
		Selectable:     true,
	},
	PersonaLiveOdds: {
		Title:          "Live odds",
		Description:    "In-play markets explained",
		PromptTemplate: "User %s (%s subscription) is following live odds. Explain markets using the live odds tools.%s",
		Selectable:     true,
	},
	PersonaBetting: {
		Title:          "Betting advice",
		Description:    "Responsible betting suggestions",
		PromptTemplate: "User %s (%s subscription) asks for betting advice. Always remind them to bet responsibly.%s",
		Selectable:     true,
	},
	PersonaSystem: {
		Title:          "System",
		PromptTemplate: "System conversation for %s (%s).%s",
	},
}

// SelectablePersonas lists the personas offered in the menu, in menu order.
func SelectablePersonas() []Persona {
	return []Persona{PersonaGeneral, PersonaPredictions, PersonaLiveOdds, PersonaBetting}
}

func ParsePersona(value string) (Persona, bool) {
	persona := Persona(strings.ToLower(strings.TrimSpace(value)))
	_, ok := personaSpecs[persona]
	return persona, ok
}

func (p Persona) Spec() (PersonaSpec, bool) {
	spec, ok := personaSpecs[p]
	return spec, ok
}

// InitialContext renders the priming message posted to a fresh thread.
func (p Persona) InitialContext(userName, tier string, fixtureID *int64) string {
	spec, ok := personaSpecs[p]
	if !ok {
		spec = personaSpecs[PersonaGeneral]
	}
	if strings.TrimSpace(userName) == "" {
		userName = "User"
	}
	fixture := ""
	if fixtureID != nil {
		fixture = fmt.Sprintf(" Focus on fixture %d.", *fixtureID)
	}
	return fmt.Sprintf(spec.PromptTemplate, userName, tier, fixture)
}
