package apisports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
)

type rawItem = json.RawMessage

type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response []rawItem       `json:"response"`
}

// decodeEnvelope splits the top-level response list. API-Football reports
// quota and key problems with a 200 and a non-empty errors field.
func decodeEnvelope(raw []byte) ([]rawItem, error) {
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, &usecase.UpstreamError{StatusCode: 200, Body: "undecodable payload: " + err.Error()}
	}
	if hasErrors(env.Errors) {
		return nil, &usecase.UpstreamError{StatusCode: 200, Body: abbreviateBody(env.Errors)}
	}
	return env.Response, nil
}

func hasErrors(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "[]", "{}":
		return false
	default:
		return true
	}
}

type score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type status struct {
	Long    string     `json:"long"`
	Short   string     `json:"short"`
	Elapsed *int       `json:"elapsed"`
	Seconds clockValue `json:"seconds"`
}

type team struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Winner *bool  `json:"winner"`
	Goals  *int   `json:"goals"`
}

type league struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo"`
	Flag    string `json:"flag"`
	Season  int    `json:"season"`
	Round   string `json:"round"`
}

type liveFixturePayload struct {
	Fixture struct {
		ID        int64  `json:"id"`
		Referee   string `json:"referee"`
		Timezone  string `json:"timezone"`
		Date      string `json:"date"`
		Timestamp int64  `json:"timestamp"`
		Venue     struct {
			Name string `json:"name"`
			City string `json:"city"`
		} `json:"venue"`
		Status status `json:"status"`
	} `json:"fixture"`
	League league `json:"league"`
	Teams  struct {
		Home team `json:"home"`
		Away team `json:"away"`
	} `json:"teams"`
	Goals score `json:"goals"`
	Score struct {
		Halftime  score `json:"halftime"`
		Fulltime  score `json:"fulltime"`
		Extratime score `json:"extratime"`
		Penalty   score `json:"penalty"`
	} `json:"score"`
}

type oddsValuePayload struct {
	Value     flexString `json:"value"`
	Odd       flexString `json:"odd"`
	Handicap  flexString `json:"handicap"`
	Main      *bool      `json:"main"`
	Suspended bool       `json:"suspended"`
}

type oddsCategoryPayload struct {
	ID     int64              `json:"id"`
	Name   string             `json:"name"`
	Values []oddsValuePayload `json:"values"`
}

type liveOddsPayload struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Status status `json:"status"`
	} `json:"fixture"`
	League league `json:"league"`
	Teams  struct {
		Home team `json:"home"`
		Away team `json:"away"`
	} `json:"teams"`
	Status struct {
		Stopped  bool `json:"stopped"`
		Blocked  bool `json:"blocked"`
		Finished bool `json:"finished"`
	} `json:"status"`
	Update string                `json:"update"`
	Odds   []oddsCategoryPayload `json:"odds"`
}

func decodeLiveFixture(raw rawItem) (usecase.ExternalLiveFixture, error) {
	var p liveFixturePayload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return usecase.ExternalLiveFixture{}, fmt.Errorf("decode live fixture: %w", err)
	}

	return usecase.ExternalLiveFixture{
		FixtureID:      p.Fixture.ID,
		Date:           parseTime(p.Fixture.Date),
		Timestamp:      p.Fixture.Timestamp,
		Timezone:       strings.TrimSpace(p.Fixture.Timezone),
		Referee:        strings.TrimSpace(p.Fixture.Referee),
		StatusLong:     p.Fixture.Status.Long,
		StatusShort:    strings.TrimSpace(p.Fixture.Status.Short),
		Elapsed:        p.Fixture.Status.Elapsed,
		ElapsedSeconds: p.Fixture.Status.Seconds.ptr(),
		VenueName:      p.Fixture.Venue.Name,
		VenueCity:      p.Fixture.Venue.City,
		HomeTeamID:     p.Teams.Home.ID,
		HomeTeamName:   p.Teams.Home.Name,
		HomeTeamLogo:   p.Teams.Home.Logo,
		HomeWinner:     p.Teams.Home.Winner,
		AwayTeamID:     p.Teams.Away.ID,
		AwayTeamName:   p.Teams.Away.Name,
		AwayTeamLogo:   p.Teams.Away.Logo,
		AwayWinner:     p.Teams.Away.Winner,
		Goals:          usecase.ExternalScore(p.Goals),
		Halftime:       usecase.ExternalScore(p.Score.Halftime),
		Fulltime:       usecase.ExternalScore(p.Score.Fulltime),
		Extratime:      usecase.ExternalScore(p.Score.Extratime),
		Penalty:        usecase.ExternalScore(p.Score.Penalty),
		LeagueID:       p.League.ID,
		LeagueName:     p.League.Name,
		LeagueCountry:  p.League.Country,
		LeagueLogo:     p.League.Logo,
		LeagueFlag:     p.League.Flag,
		LeagueSeason:   p.League.Season,
		LeagueRound:    p.League.Round,
		Raw:            append([]byte(nil), raw...),
	}, nil
}

func decodeLiveOdds(raw rawItem) (usecase.ExternalLiveOdds, error) {
	var p liveOddsPayload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return usecase.ExternalLiveOdds{}, fmt.Errorf("decode live odds: %w", err)
	}

	categories := make([]usecase.ExternalOddsCategory, 0, len(p.Odds))
	for _, category := range p.Odds {
		values := make([]usecase.ExternalOddsValue, 0, len(category.Values))
		for _, value := range category.Values {
			odd := string(value.Odd)
			if odd == "" {
				odd = "0"
			}
			values = append(values, usecase.ExternalOddsValue{
				Label:     string(value.Value),
				Odd:       odd,
				Handicap:  string(value.Handicap),
				Main:      value.Main != nil && *value.Main,
				Suspended: value.Suspended,
			})
		}
		categories = append(categories, usecase.ExternalOddsCategory{
			ExternalID: category.ID,
			Name:       strings.TrimSpace(category.Name),
			Values:     values,
		})
	}

	return usecase.ExternalLiveOdds{
		FixtureID:      p.Fixture.ID,
		StatusLong:     p.Fixture.Status.Long,
		StatusShort:    strings.TrimSpace(p.Fixture.Status.Short),
		Elapsed:        p.Fixture.Status.Elapsed,
		ElapsedSeconds: p.Fixture.Status.Seconds.ptr(),
		LeagueID:       p.League.ID,
		Season:         p.League.Season,
		HomeTeamID:     p.Teams.Home.ID,
		AwayTeamID:     p.Teams.Away.ID,
		GoalsHome:      p.Teams.Home.Goals,
		GoalsAway:      p.Teams.Away.Goals,
		Blocked:        p.Status.Blocked,
		Stopped:        p.Status.Stopped,
		Finished:       p.Status.Finished,
		UpstreamAt:     parseTime(p.Update),
		Categories:     categories,
		Raw:            append([]byte(nil), raw...),
	}, nil
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

// flexString accepts strings, numbers and null; odds labels and handicaps
// come in either form.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = ""
		return nil
	}
	if trimmed[0] == '"' {
		var value string
		if err := sonic.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(value))
		return nil
	}
	*s = flexString(string(trimmed))
	return nil
}

// clockValue is the match clock in seconds. Upstream sends either a number
// or an "mm:ss" string.
type clockValue struct {
	seconds int
	set     bool
}

func (c *clockValue) UnmarshalJSON(data []byte) error {
	var value flexString
	if err := value.UnmarshalJSON(data); err != nil {
		return err
	}
	text := string(value)
	if text == "" {
		*c = clockValue{}
		return nil
	}
	if minutes, seconds, ok := strings.Cut(text, ":"); ok {
		m, errM := strconv.Atoi(minutes)
		s, errS := strconv.Atoi(seconds)
		if errM != nil || errS != nil {
			return fmt.Errorf("invalid clock %q", text)
		}
		*c = clockValue{seconds: m*60 + s, set: true}
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("invalid clock %q", text)
	}
	*c = clockValue{seconds: n, set: true}
	return nil
}

func (c clockValue) ptr() *int {
	if !c.set {
		return nil
	}
	v := c.seconds
	return &v
}
