package roles

import (
	"encoding/json"
	"fmt"
)

// Convent is one of the corps' deliberative bodies.
type Convent uint8

const (
	ConventAHC Convent = iota // Altherrenconvent
	ConventCC                 // Corpsburschenconvent
	ConventFC                 // Fuchsenconvent
	ConventFCC                // Feierlicher Corpsburschenconvent

	conventCount
)

var conventNames = [conventCount]roleName{
	ConventAHC: {"Altherrenconvent", "AHC"},
	ConventCC:  {"Corpsburschenconvent", "CC"},
	ConventFC:  {"Fuchsenconvent", "FC"},
	ConventFCC: {"Feierlicher Corpsburschenconvent", "FCC"},
}

// Valid reports whether c is one of the defined convents.
func (c Convent) Valid() bool {
	return c < conventCount
}

// Name returns the full convent name.
func (c Convent) Name() string {
	if !c.Valid() {
		return fmt.Sprintf("Convent(%d)", uint8(c))
	}
	return conventNames[c].name
}

// Abbreviation returns the short form of the convent name.
func (c Convent) Abbreviation() string {
	if !c.Valid() {
		return c.Name()
	}
	return conventNames[c].abbreviation
}

func (c Convent) String() string {
	return c.Abbreviation()
}

// MarshalJSON encodes the convent as {"name": ..., "abbreviation": ...}.
func (c Convent) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid convent %d", uint8(c))
	}
	return json.Marshal(map[string]string{
		"name":         c.Name(),
		"abbreviation": c.Abbreviation(),
	})
}

// ConventAuthorization names a permission level on a convent: sitting in
// on it, or additionally voting. "May attend" and "may vote" are distinct
// permissions per convent.
type ConventAuthorization struct {
	Convent Convent
	Vote    bool
}

// The full set of convent authorizations.
var (
	AHC     = ConventAuthorization{ConventAHC, false}
	AHCVote = ConventAuthorization{ConventAHC, true}
	CC      = ConventAuthorization{ConventCC, false}
	CCVote  = ConventAuthorization{ConventCC, true}
	FC      = ConventAuthorization{ConventFC, false}
	FCVote  = ConventAuthorization{ConventFC, true}
	FCC     = ConventAuthorization{ConventFCC, false}
	FCCVote = ConventAuthorization{ConventFCC, true}
)

func (a ConventAuthorization) String() string {
	if a.Vote {
		return a.Convent.Abbreviation() + "_VOTE"
	}
	return a.Convent.Abbreviation()
}
