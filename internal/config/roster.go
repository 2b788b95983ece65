package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Roster maps login usernames to the mechanic names the maintenance API
// filters on. Master users see every request.
type Roster struct {
	Masters   []string            `yaml:"masters"`
	Mechanics map[string][]string `yaml:"mechanics"`
}

// LoadRoster reads the roster file. A missing file yields an empty roster.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Roster{}, nil
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes a YAML roster.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	// usernames are matched case-insensitively
	mechanics := make(map[string][]string, len(r.Mechanics))
	for user, names := range r.Mechanics {
		mechanics[strings.ToLower(user)] = names
	}
	r.Mechanics = mechanics
	return &r, nil
}

// IsMaster checks if the user may view every maintenance request
func (r *Roster) IsMaster(username string) bool {
	for _, m := range r.Masters {
		if strings.EqualFold(m, username) {
			return true
		}
	}
	return false
}

// MechanicNames returns the names to query for a user. Unknown users are
// queried by their username.
func (r *Roster) MechanicNames(username string) []string {
	if names, ok := r.Mechanics[strings.ToLower(username)]; ok && len(names) > 0 {
		out := make([]string, len(names))
		copy(out, names)
		return out
	}
	return []string{username}
}

// DisplayName joins the mechanic names for display.
func (r *Roster) DisplayName(username string) string {
	return strings.Join(r.MechanicNames(username), ", ")
}
