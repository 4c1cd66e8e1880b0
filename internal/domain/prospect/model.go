package prospect

import "fmt"

// Position represents basketball position categories.
type Position string

const (
	PositionPointGuard    Position = "PG"
	PositionShootingGuard Position = "SG"
	PositionSmallForward  Position = "SF"
	PositionPowerForward  Position = "PF"
	PositionCenter        Position = "C"
)

var AllPositions = map[Position]struct{}{
	PositionPointGuard:    {},
	PositionShootingGuard: {},
	PositionSmallForward:  {},
	PositionPowerForward:  {},
	PositionCenter:        {},
}

// Prospect is a draft-eligible player whose game schedule the engine tracks.
// FamilyKey ties the prospect to the team family resolved by the identity
// rules.
type Prospect struct {
	ID        string
	FullName  string
	Position  Position
	Class     string
	BirthYear int
	FamilyKey string
	Tracked   bool
}

func (p Prospect) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prospect id is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("prospect full name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid prospect position: %s", p.Position)
	}
	if p.FamilyKey == "" {
		return fmt.Errorf("prospect family key is required")
	}

	return nil
}
