package livefixture

import (
	"strings"
	"time"
)

var liveStatuses = map[string]struct{}{
	"1H": {}, "2H": {}, "HT": {}, "ET": {}, "BT": {}, "P": {}, "INT": {},
}

// IsLiveStatus reports whether a short status code means the match is in play.
func IsLiveStatus(short string) bool {
	_, ok := liveStatuses[strings.ToUpper(strings.TrimSpace(short))]
	return ok
}

// LiveStatusCodes returns the in-play short codes.
func LiveStatusCodes() []string {
	return []string{"1H", "2H", "HT", "ET", "BT", "P", "INT"}
}

type ScorePair struct {
	Home *int
	Away *int
}

type TeamSide struct {
	ID     int64
	Name   string
	Logo   string
	Winner *bool
}

type League struct {
	ID      int64
	Name    string
	Country string
	Logo    string
	Flag    string
	Season  int
	Round   string
}

type Status struct {
	Long           string
	Short          string
	Elapsed        *int
	ElapsedSeconds *int
}

// Snapshot is one live match as last reported by a source.
type Snapshot struct {
	SourceID  int64
	FixtureID int64
	Date      *time.Time
	Timestamp int64
	Timezone  string
	Referee   string
	Status    Status
	VenueName string
	VenueCity string
	Home      TeamSide
	Away      TeamSide
	Goals     ScorePair
	Halftime  ScorePair
	Fulltime  ScorePair
	Extratime ScorePair
	Penalty   ScorePair
	League    League
	Raw       []byte
	UpdatedAt time.Time
}

func (s Snapshot) IsLive() bool {
	return IsLiveStatus(s.Status.Short)
}
