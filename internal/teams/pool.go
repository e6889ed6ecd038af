package teams

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrTeamNotFound is returned when a name does not match any team in the pool
var ErrTeamNotFound = errors.New("team not found in pool")

// Pool holds the draftable teams, partitioned by conference. Lookups are
// case-insensitive and whitespace-normalized so users can type team names
// loosely in chat.
type Pool struct {
	// conference name -> canonical team names, in file order
	byConference map[string][]string

	// normalized team name -> canonical team name
	canonical map[string]string

	// canonical team name -> conference name
	conferenceOf map[string]string

	// conference names, sorted
	conferences []string
}

// poolFile is the on-disk YAML layout: conference name -> team names
type poolFile struct {
	Conferences map[string][]string `yaml:"conferences"`
}

// Normalize collapses whitespace and lowercases a team or conference name
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// LoadFile reads a team pool from a YAML file
func LoadFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team pool file: %w", err)
	}

	var file poolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse team pool file: %w", err)
	}

	return New(file.Conferences)
}

// New builds a pool from a conference -> team names mapping
func New(conferences map[string][]string) (*Pool, error) {
	if len(conferences) == 0 {
		return nil, errors.New("team pool has no conferences")
	}

	p := &Pool{
		byConference: make(map[string][]string, len(conferences)),
		canonical:    make(map[string]string),
		conferenceOf: make(map[string]string),
	}

	for conf, names := range conferences {
		if len(names) == 0 {
			return nil, fmt.Errorf("conference %q has no teams", conf)
		}

		for _, name := range names {
			norm := Normalize(name)
			if existing, ok := p.canonical[norm]; ok {
				return nil, fmt.Errorf("duplicate team %q (already registered as %q)", name, existing)
			}
			p.canonical[norm] = name
			p.conferenceOf[name] = conf
			p.byConference[conf] = append(p.byConference[conf], name)
		}

		p.conferences = append(p.conferences, conf)
	}

	sort.Strings(p.conferences)

	return p, nil
}

// Conferences returns the conference names in sorted order
func (p *Pool) Conferences() []string {
	out := make([]string, len(p.conferences))
	copy(out, p.conferences)
	return out
}

// HasConference reports whether a conference exists, matching loosely.
// The second return value is the canonical conference name.
func (p *Pool) HasConference(name string) (string, bool) {
	norm := Normalize(name)
	for _, conf := range p.conferences {
		if Normalize(conf) == norm {
			return conf, true
		}
	}
	return "", false
}

// Canonical resolves a loosely-typed team name to its canonical form
func (p *Pool) Canonical(name string) (string, error) {
	canon, ok := p.canonical[Normalize(name)]
	if !ok {
		return "", ErrTeamNotFound
	}
	return canon, nil
}

// ConferenceOf returns the conference a canonical team name belongs to
func (p *Pool) ConferenceOf(team string) (string, error) {
	conf, ok := p.conferenceOf[team]
	if !ok {
		return "", ErrTeamNotFound
	}
	return conf, nil
}

// Teams returns the canonical team names for a conference, or every team
// in the pool when conference is empty
func (p *Pool) Teams(conference string) []string {
	if conference != "" {
		out := make([]string, len(p.byConference[conference]))
		copy(out, p.byConference[conference])
		return out
	}

	var out []string
	for _, conf := range p.conferences {
		out = append(out, p.byConference[conf]...)
	}
	return out
}

// Available filters a conference's teams (or the whole pool when
// conference is empty) down to those not present in taken
func (p *Pool) Available(conference string, taken map[string]bool) []string {
	var out []string
	for _, team := range p.Teams(conference) {
		if !taken[team] {
			out = append(out, team)
		}
	}
	return out
}

// Size returns the total number of teams in the pool
func (p *Pool) Size() int {
	return len(p.conferenceOf)
}
