package usecase

import (
	"strconv"
	"strings"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
)

const (
	selectionPrefixList   = "list:"
	selectionPrefixButton = "button:"
	exitAssistantButton   = "exit_assistant"
)

var (
	exitWords = map[string]struct{}{"exit": {}, "salir": {}, "fin": {}, "terminar": {}}
	menuWords = map[string]struct{}{"menu": {}, "menú": {}}
)

// ClassifyInbound turns a chat message into a router event. selectionID is the
// id of an interactive list or button reply and wins over the text body.
func ClassifyInbound(text, selectionID string) InboundEvent {
	text = strings.TrimSpace(text)

	selection := strings.TrimSpace(selectionID)
	if selection == "" {
		lowered := strings.ToLower(text)
		for _, prefix := range []string{selectionPrefixList, selectionPrefixButton} {
			if strings.HasPrefix(lowered, prefix) {
				selection = strings.TrimSpace(text[len(prefix):])
				break
			}
		}
	}

	if selection != "" {
		if strings.EqualFold(selection, exitAssistantButton) {
			return InboundEvent{Kind: EventExit, Text: text}
		}
		if event, ok := parsePersonaSelection(selection); ok {
			event.Text = text
			if event.Text == "" {
				event.Text = selection
			}
			return event
		}
	}

	keyword := strings.ToLower(text)
	if _, ok := exitWords[keyword]; ok {
		return InboundEvent{Kind: EventExit, Text: text}
	}
	if _, ok := menuWords[keyword]; ok {
		return InboundEvent{Kind: EventMenu, Text: text}
	}
	// The menu asks for a typed code, so a lone "persona" or "persona:fixtureID"
	// is a selection too.
	if selection == "" && len(strings.Fields(text)) == 1 {
		if event, ok := parsePersonaSelection(text); ok {
			event.Text = text
			return event
		}
	}
	return InboundEvent{Kind: EventText, Text: text}
}

// parsePersonaSelection accepts "persona" or "persona:fixtureID".
func parsePersonaSelection(selection string) (InboundEvent, bool) {
	name, rawFixture, hasFixture := strings.Cut(selection, ":")
	persona, ok := conversation.ParsePersona(name)
	if !ok {
		return InboundEvent{}, false
	}
	spec, _ := persona.Spec()
	if !spec.Selectable {
		return InboundEvent{}, false
	}

	event := InboundEvent{Kind: EventSelectPersona, Persona: persona}
	if hasFixture {
		fixtureID, err := strconv.ParseInt(strings.TrimSpace(rawFixture), 10, 64)
		if err != nil || fixtureID <= 0 {
			return InboundEvent{}, false
		}
		event.FixtureID = &fixtureID
	}
	return event, true
}
