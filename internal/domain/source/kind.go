package source

import "strings"

type Kind string

const (
	KindLiveFixtures Kind = "live_fixtures"
	KindLiveOdds     Kind = "live_odds"
)

// KindSpec holds the bootstrap defaults for a source kind.
type KindSpec struct {
	DefaultName        string
	DefaultEndpoint    string
	DefaultParams      map[string]string
	DefaultDescription string
}

var kindSpecs = map[Kind]KindSpec{
	KindLiveFixtures: {
		DefaultName:        "live-fixtures",
		DefaultEndpoint:    "/fixtures",
		DefaultParams:      map[string]string{"live": "all"},
		DefaultDescription: "Fixtures currently in play",
	},
	KindLiveOdds: {
		DefaultName:        "live-odds",
		DefaultEndpoint:    "/odds/live",
		DefaultParams:      map[string]string{},
		DefaultDescription: "In-play odds for live fixtures",
	},
}

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindLiveFixtures, KindLiveOdds}
}

func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	_, ok := kindSpecs[kind]
	return kind, ok
}

func (k Kind) Spec() (KindSpec, bool) {
	spec, ok := kindSpecs[k]
	if !ok {
		return KindSpec{}, false
	}
	params := make(map[string]string, len(spec.DefaultParams))
	for key, value := range spec.DefaultParams {
		params[key] = value
	}
	spec.DefaultParams = params
	return spec, true
}

func (k Kind) String() string {
	return string(k)
}
