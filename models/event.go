package models

// Event is the catalog entry a team registers for.
type Event struct {
	Ref            string  `json:"ref" db:"ref"`
	Key            string  `json:"key" db:"event_key"`
	Name           string  `json:"name" db:"name"`
	MinTeamSize    int     `json:"min_team_size" db:"min_team_size"`
	MaxTeamSize    int     `json:"max_team_size" db:"max_team_size"`
	PricePerMember float64 `json:"price_per_member" db:"price_per_member"`
}

// TeamSizeBounds returns the event's team size limits, falling back to the defaults for missing values.
func (e *Event) TeamSizeBounds() (min, max int) {
	min, max = DefaultMinTeamSize, DefaultMaxTeamSize
	if e == nil {
		return min, max
	}
	if e.MinTeamSize > 0 {
		min = e.MinTeamSize
	}
	if e.MaxTeamSize > 0 {
		max = e.MaxTeamSize
	}
	if max < min {
		max = min
	}
	return min, max
}
