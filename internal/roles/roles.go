// Package roles holds the immutable catalog of interviewable roles: the
// finance roles the platform knows about, their topic checklists, the eight
// knowledge areas tracked per topic, and the interview phase structures. The
// catalog is compiled in from roles.yaml and never changes at runtime;
// consumers receive it explicitly rather than reading package globals.
package roles

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var catalogYAML []byte

// Area is one of the eight knowledge areas tracked for every topic. Keywords
// drive the heuristic coverage analyzer.
type Area struct {
	Key      string   `yaml:"key" json:"key"`
	Name     string   `yaml:"name" json:"name"`
	Prompt   string   `yaml:"prompt" json:"prompt"`
	Keywords []string `yaml:"keywords" json:"-"`
}

// Topic is a checklist entry for a role.
type Topic struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	ProcessOriented bool     `yaml:"processOriented" json:"isProcessOriented"`
	RequiredAreas   []string `yaml:"requiredAreas" json:"requiredAreas"`
}

// Role describes one interviewable role and everything the interviewer needs
// to know about it.
type Role struct {
	Name                 string   `yaml:"name" json:"name"`
	Domain               string   `yaml:"domain" json:"domain"`
	ChecklistDescription string   `yaml:"checklistDescription" json:"checklistDescription"`
	KeyAreas             []string `yaml:"keyAreas" json:"keyAreas"`
	ExpectedTopics       []string `yaml:"expectedTopics" json:"expectedTopics"`
	Topics               []Topic  `yaml:"topics" json:"topics"`
}

// Topic returns the checklist topic with the given id.
func (r Role) Topic(id string) (Topic, bool) {
	for _, t := range r.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// Phase describes the shape of one interview phase for prompt generation.
// The lifecycle ordering of phases lives with the interview manager.
type Phase struct {
	Key      string `yaml:"key" json:"key"`
	Purpose  string `yaml:"purpose" json:"purpose"`
	Approach string `yaml:"approach" json:"approach"`
	Duration string `yaml:"duration" json:"duration"`
}

// Catalog is the loaded role catalog.
type Catalog struct {
	Areas  []Area  `yaml:"knowledgeAreas"`
	Phases []Phase `yaml:"phases"`
	Roles  []Role  `yaml:"roles"`

	areasByKey  map[string]Area
	phasesByKey map[string]Phase
	rolesByName map[string]Role
}

// Load parses the embedded catalog. Callers treat the result as read-only.
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	c.areasByKey = make(map[string]Area, len(c.Areas))
	for _, a := range c.Areas {
		c.areasByKey[a.Key] = a
	}
	c.phasesByKey = make(map[string]Phase, len(c.Phases))
	for _, p := range c.Phases {
		c.phasesByKey[p.Key] = p
	}
	c.rolesByName = make(map[string]Role, len(c.Roles))
	for _, r := range c.Roles {
		c.rolesByName[r.Name] = r
	}
	return &c, nil
}

// MustLoad is for tests and main wiring where a broken embedded catalog is a
// programming error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Role(name string) (Role, bool) {
	r, ok := c.rolesByName[name]
	return r, ok
}

func (c *Catalog) Area(key string) (Area, bool) {
	a, ok := c.areasByKey[key]
	return a, ok
}

func (c *Catalog) Phase(key string) (Phase, bool) {
	p, ok := c.phasesByKey[key]
	return p, ok
}

func (c *Catalog) ValidRole(name string) bool {
	_, ok := c.rolesByName[name]
	return ok
}

func (c *Catalog) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		names = append(names, r.Name)
	}
	return names
}

// AreaKeys returns the knowledge area keys in catalog order.
func (c *Catalog) AreaKeys() []string {
	keys := make([]string, 0, len(c.Areas))
	for _, a := range c.Areas {
		keys = append(keys, a.Key)
	}
	return keys
}

// Slug converts a role name to its storage key form, e.g.
// "Head of Treasury" -> "head-of-treasury".
func Slug(roleName string) string {
	return strings.ToLower(strings.Join(strings.Fields(roleName), "-"))
}
