package httpapi

import (
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/jobscheduler"
	"github.com/jcamiloaa/deep90-app/internal/domain/livefixture"
	"github.com/jcamiloaa/deep90-app/internal/domain/liveodds"
	"github.com/jcamiloaa/deep90-app/internal/domain/source"
)

type sourceDTO struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Kind            string            `json:"kind"`
	Endpoint        string            `json:"endpoint"`
	Params          map[string]string `json:"params,omitempty"`
	Description     string            `json:"description,omitempty"`
	Enabled         bool              `json:"enabled"`
	IntervalSeconds int               `json:"interval_seconds"`
	Status          string            `json:"status"`
	LastRunAt       string            `json:"last_run_at,omitempty"`
	NextRunAt       string            `json:"next_run_at,omitempty"`
	ErrorCount      int               `json:"error_count"`
	LastError       string            `json:"last_error,omitempty"`
}

type dispatchDTO struct {
	DispatchID  string `json:"dispatch_id"`
	JobName     string `json:"job_name"`
	SourceID    int64  `json:"source_id"`
	Status      string `json:"status"`
	LastError   string `json:"last_error,omitempty"`
	SentAt      string `json:"sent_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	FailedAt    string `json:"failed_at,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type scoreDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type teamSideDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo,omitempty"`
	Winner *bool  `json:"winner"`
}

type leagueDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Flag    string `json:"flag,omitempty"`
	Season  int    `json:"season"`
	Round   string `json:"round,omitempty"`
}

type liveFixtureDTO struct {
	FixtureID      int64       `json:"fixture_id"`
	SourceID       int64       `json:"source_id"`
	Date           string      `json:"date,omitempty"`
	Referee        string      `json:"referee,omitempty"`
	StatusLong     string      `json:"status_long"`
	StatusShort    string      `json:"status_short"`
	Elapsed        *int        `json:"elapsed"`
	ElapsedSeconds *int        `json:"elapsed_seconds"`
	VenueName      string      `json:"venue_name,omitempty"`
	VenueCity      string      `json:"venue_city,omitempty"`
	Home           teamSideDTO `json:"home"`
	Away           teamSideDTO `json:"away"`
	Goals          scoreDTO    `json:"goals"`
	Halftime       scoreDTO    `json:"halftime"`
	League         leagueDTO   `json:"league"`
	UpdatedAt      string      `json:"updated_at"`
}

type oddsValueDTO struct {
	Label     string `json:"label"`
	Odd       string `json:"odd"`
	Handicap  string `json:"handicap,omitempty"`
	Main      bool   `json:"main"`
	Suspended bool   `json:"suspended"`
}

type oddsCategoryDTO struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Values []oddsValueDTO `json:"values"`
}

type liveOddsDTO struct {
	FixtureID   int64             `json:"fixture_id"`
	SourceID    int64             `json:"source_id"`
	Blocked     bool              `json:"blocked"`
	Stopped     bool              `json:"stopped"`
	Finished    bool              `json:"finished"`
	StatusLong  string            `json:"status_long"`
	StatusShort string            `json:"status_short"`
	Elapsed     *int              `json:"elapsed"`
	Goals       scoreDTO          `json:"goals"`
	UpstreamAt  string            `json:"upstream_at,omitempty"`
	Categories  []oddsCategoryDTO `json:"categories"`
	UpdatedAt   string            `json:"updated_at"`
}

func sourceToDTO(v source.Source) sourceDTO {
	return sourceDTO{
		ID:              v.ID,
		Name:            v.Name,
		Kind:            string(v.Kind),
		Endpoint:        v.Endpoint,
		Params:          v.Params,
		Description:     v.Description,
		Enabled:         v.Enabled,
		IntervalSeconds: v.IntervalSeconds,
		Status:          string(v.Status),
		LastRunAt:       formatOptionalTime(v.LastRunAt),
		NextRunAt:       formatOptionalTime(v.NextRunAt),
		ErrorCount:      v.ErrorCount,
		LastError:       v.LastError,
	}
}

func dispatchToDTO(v jobscheduler.Dispatch) dispatchDTO {
	return dispatchDTO{
		DispatchID:  v.DispatchID,
		JobName:     v.JobName,
		SourceID:    v.SourceID,
		Status:      string(v.Status),
		LastError:   v.LastError,
		SentAt:      formatOptionalTime(v.SentAt),
		CompletedAt: formatOptionalTime(v.CompletedAt),
		FailedAt:    formatOptionalTime(v.FailedAt),
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func liveFixtureToDTO(v livefixture.Snapshot) liveFixtureDTO {
	return liveFixtureDTO{
		FixtureID:      v.FixtureID,
		SourceID:       v.SourceID,
		Date:           formatOptionalTime(v.Date),
		Referee:        v.Referee,
		StatusLong:     v.Status.Long,
		StatusShort:    v.Status.Short,
		Elapsed:        v.Status.Elapsed,
		ElapsedSeconds: v.Status.ElapsedSeconds,
		VenueName:      v.VenueName,
		VenueCity:      v.VenueCity,
		Home:           teamSideDTO{ID: v.Home.ID, Name: v.Home.Name, Logo: v.Home.Logo, Winner: v.Home.Winner},
		Away:           teamSideDTO{ID: v.Away.ID, Name: v.Away.Name, Logo: v.Away.Logo, Winner: v.Away.Winner},
		Goals:          scoreDTO{Home: v.Goals.Home, Away: v.Goals.Away},
		Halftime:       scoreDTO{Home: v.Halftime.Home, Away: v.Halftime.Away},
		League: leagueDTO{
			ID:      v.League.ID,
			Name:    v.League.Name,
			Country: v.League.Country,
			Logo:    v.League.Logo,
			Flag:    v.League.Flag,
			Season:  v.League.Season,
			Round:   v.League.Round,
		},
		UpdatedAt: formatTime(v.UpdatedAt),
	}
}

func liveOddsToDTO(v liveodds.Snapshot) liveOddsDTO {
	categories := make([]oddsCategoryDTO, 0, len(v.Categories))
	for _, category := range v.Categories {
		values := make([]oddsValueDTO, 0, len(category.Values))
		for _, value := range category.Values {
			values = append(values, oddsValueDTO{
				Label:     value.Label,
				Odd:       value.Odd,
				Handicap:  value.Handicap,
				Main:      value.Main,
				Suspended: value.Suspended,
			})
		}
		categories = append(categories, oddsCategoryDTO{ID: category.ExternalID, Name: category.Name, Values: values})
	}

	return liveOddsDTO{
		FixtureID:   v.FixtureID,
		SourceID:    v.SourceID,
		Blocked:     v.Flags.Blocked,
		Stopped:     v.Flags.Stopped,
		Finished:    v.Flags.Finished,
		StatusLong:  v.StatusLong,
		StatusShort: v.StatusShort,
		Elapsed:     v.Elapsed,
		Goals:       scoreDTO{Home: v.GoalsHome, Away: v.GoalsAway},
		UpstreamAt:  formatOptionalTime(v.UpstreamAt),
		Categories:  categories,
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
