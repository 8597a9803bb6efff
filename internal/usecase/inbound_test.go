package usecase

import (
	"testing"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
)

func TestClassifyInbound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		selection string
		kind      EventKind
		persona   conversation.Persona
		fixtureID int64
	}{
		{name: "plain text", text: "who wins tonight?", kind: EventText},
		{name: "exit word", text: " Salir ", kind: EventExit},
		{name: "menu accent", text: "Menú", kind: EventMenu},
		{name: "exit button", selection: "exit_assistant", kind: EventExit},
		{name: "list selection", selection: "predictions", kind: EventSelectPersona, persona: conversation.PersonaPredictions},
		{name: "selection with fixture", selection: "live_odds:1035", kind: EventSelectPersona, persona: conversation.PersonaLiveOdds, fixtureID: 1035},
		{name: "text prefix", text: "list:betting", kind: EventSelectPersona, persona: conversation.PersonaBetting},
		{name: "button prefix exit", text: "button:exit_assistant", kind: EventExit},
		{name: "typed code", text: " Predictions ", kind: EventSelectPersona, persona: conversation.PersonaPredictions},
		{name: "typed code with fixture", text: "betting:77", kind: EventSelectPersona, persona: conversation.PersonaBetting, fixtureID: 77},
		{name: "code inside a sentence", text: "predictions for tonight", kind: EventText},
		{name: "typed bad fixture", text: "predictions:abc", kind: EventText},
		{name: "system is not selectable", selection: "system", text: "system", kind: EventText},
		{name: "bad fixture", selection: "predictions:abc", text: "hi", kind: EventText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ClassifyInbound(tt.text, tt.selection)
			if got.Kind != tt.kind {
				t.Fatalf("unexpected kind: got=%s want=%s", got.Kind, tt.kind)
			}
			if got.Persona != tt.persona {
				t.Fatalf("unexpected persona: got=%s want=%s", got.Persona, tt.persona)
			}
			switch {
			case tt.fixtureID == 0 && got.FixtureID != nil:
				t.Fatalf("unexpected fixture id: %d", *got.FixtureID)
			case tt.fixtureID != 0 && (got.FixtureID == nil || *got.FixtureID != tt.fixtureID):
				t.Fatalf("unexpected fixture id: got=%v want=%d", got.FixtureID, tt.fixtureID)
			}
		})
	}
}
