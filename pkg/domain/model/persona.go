package model

import (
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/domain/types"
)

// Persona is an AI companion character. Memories is its flat long-term
// memory set: standalone fact strings, unordered in meaning even though
// stored order is preserved.
type Persona struct {
	ID                types.PersonaID
	Name              string
	Relation          string
	Traits            string
	Backstory         string
	Goals             string
	ResponseStyle     string
	ProfilePictureURL string
	Memories          []string

	LastChatTime time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPersona creates a persona with a fresh ID
func NewPersona(name string) *Persona {
	return &Persona{
		ID:        types.NewPersonaID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// Validate checks the persona is storable
func (p *Persona) Validate() error {
	if p.ID == "" {
		return goerr.New("persona ID is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return goerr.New("persona name is required", goerr.V("persona_id", p.ID))
	}
	return nil
}

// SortedMemories returns an alphabetized copy of the memory set for
// presentation. The stored order is left untouched.
func (p *Persona) SortedMemories() []string {
	out := make([]string, len(p.Memories))
	copy(out, p.Memories)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy
func (p *Persona) Clone() *Persona {
	out := *p
	out.Memories = make([]string, len(p.Memories))
	copy(out.Memories, p.Memories)
	return &out
}
