// Package fixture provisions the remote data a scenario runs against, and
// removes it afterwards.
//
// A Plan declares users, sites, files and folders, the relations between
// them (shares, favorites), and the mutations to apply once they exist. The
// Provisioner turns it into remote calls and returns a Context, which keeps
// the identifiers of what has been created and knows how to tear it down.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/contentapp/e2e/client"
	"github.com/goccy/go-yaml"
)

// Node kinds.
const (
	KindFile   = "file"
	KindFolder = "folder"
)

// Mutation actions.
const (
	// ActionDelete permanently deletes a node.
	ActionDelete = "delete"
	// ActionTrash moves a node to the trashcan.
	ActionTrash = "trash"
	// ActionUnshare deletes the shared link of a file, found by name.
	ActionUnshare = "unshare"
	// ActionUnfavorite removes a node from the favorites.
	ActionUnfavorite = "unfavorite"
)

// ErrInvalidPlan is returned when a plan references unknown keys, or is
// malformed.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan is the declarative description of a fixture. The keys are the names
// used by the scenarios to find the resources, they are never sent to the
// repository.
type Plan struct {
	Users     []UserSpec     `yaml:"users"`
	Sites     []SiteSpec     `yaml:"sites"`
	Nodes     []NodeSpec     `yaml:"nodes"`
	Shares    []ShareSpec    `yaml:"shares"`
	Favorites []FavoriteSpec `yaml:"favorites"`
	// Settle are the expectations waited for before the mutations.
	Settle    []Expectation `yaml:"settle"`
	Mutations []Mutation    `yaml:"mutations"`
	// Final are the expectations waited for after the mutations.
	Final []Expectation `yaml:"final"`
}

// UserSpec declares a user. Without an ID, a random one is derived from the
// key.
type UserSpec struct {
	Key       string `yaml:"key"`
	ID        string `yaml:"id,omitempty"`
	FirstName string `yaml:"firstName,omitempty"`
	LastName  string `yaml:"lastName,omitempty"`
	Email     string `yaml:"email,omitempty"`
	Password  string `yaml:"password,omitempty"`
}

// SiteSpec declares a site, created by Owner (a user key, or the admin when
// empty).
type SiteSpec struct {
	Key        string       `yaml:"key"`
	ID         string       `yaml:"id,omitempty"`
	Title      string       `yaml:"title,omitempty"`
	Visibility string       `yaml:"visibility,omitempty"`
	Owner      string       `yaml:"owner,omitempty"`
	Members    []MemberSpec `yaml:"members,omitempty"`
}

// MemberSpec adds a user to a site.
type MemberSpec struct {
	User string `yaml:"user"`
	Role string `yaml:"role,omitempty"`
}

// NodeSpec declares a file or a folder. It is created in Parent (a node
// key), or in the document library of Site, or else in the home folder of
// Owner. With Random, a random token is added to the name.
type NodeSpec struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Owner  string `yaml:"owner,omitempty"`
	Parent string `yaml:"parent,omitempty"`
	Site   string `yaml:"site,omitempty"`
	Random bool   `yaml:"random,omitempty"`
}

// ShareSpec creates a shared link on a file, as the user As (the owner of
// the node by default).
type ShareSpec struct {
	Node string `yaml:"node"`
	As   string `yaml:"as,omitempty"`
}

// FavoriteSpec marks a node as a favorite of the user As (the owner of the
// node by default).
type FavoriteSpec struct {
	Node string `yaml:"node"`
	As   string `yaml:"as,omitempty"`
}

// Expectation is a count of items the repository must report in a view,
// for the user As (the admin when empty).
type Expectation struct {
	View  View   `yaml:"view"`
	As    string `yaml:"as,omitempty"`
	Count int    `yaml:"count"`
}

// Mutation is applied to a node once everything has been created.
type Mutation struct {
	Action string `yaml:"action"`
	Node   string `yaml:"node"`
	As     string `yaml:"as,omitempty"`
}

// LoadPlan decodes a YAML plan and validates it.
func LoadPlan(r io.Reader) (*Plan, error) {
	var p Plan
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlanFile reads a YAML plan from a file.
func LoadPlanFile(filename string) (*Plan, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPlan(f)
}

// Validate checks that every key is unique and that every reference is to a
// key declared before it.
func (p *Plan) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, fmt.Sprintf(format, args...))
	}
	users := map[string]bool{}
	for _, u := range p.Users {
		if u.Key == "" {
			return invalid("user without key")
		}
		if users[u.Key] {
			return invalid("duplicate user %q", u.Key)
		}
		users[u.Key] = true
	}
	user := func(key, what string) error {
		if key != "" && !users[key] {
			return invalid("%s references unknown user %q", what, key)
		}
		return nil
	}

	sites := map[string]bool{}
	for _, s := range p.Sites {
		if s.Key == "" {
			return invalid("site without key")
		}
		if sites[s.Key] {
			return invalid("duplicate site %q", s.Key)
		}
		sites[s.Key] = true
		if err := user(s.Owner, "site "+s.Key); err != nil {
			return err
		}
		for _, m := range s.Members {
			if m.User == "" || !users[m.User] {
				return invalid("site %q has unknown member %q", s.Key, m.User)
			}
		}
	}

	nodes := map[string]NodeSpec{}
	for _, n := range p.Nodes {
		if n.Key == "" {
			return invalid("node without key")
		}
		if _, ok := nodes[n.Key]; ok {
			return invalid("duplicate node %q", n.Key)
		}
		if n.Kind != "" && n.Kind != KindFile && n.Kind != KindFolder {
			return invalid("node %q has unknown kind %q", n.Key, n.Kind)
		}
		if n.Parent != "" && n.Site != "" {
			return invalid("node %q has both a parent and a site", n.Key)
		}
		if n.Parent != "" {
			parent, ok := nodes[n.Parent]
			if !ok {
				return invalid("node %q references unknown parent %q", n.Key, n.Parent)
			}
			if parent.Kind != KindFolder {
				return invalid("parent %q of node %q is not a folder", n.Parent, n.Key)
			}
		}
		if n.Site != "" && !sites[n.Site] {
			return invalid("node %q references unknown site %q", n.Key, n.Site)
		}
		if err := user(n.Owner, "node "+n.Key); err != nil {
			return err
		}
		nodes[n.Key] = n.withDefaults()
	}

	for _, s := range p.Shares {
		n, ok := nodes[s.Node]
		if !ok {
			return invalid("share references unknown node %q", s.Node)
		}
		if n.Kind != KindFile {
			return invalid("only files can be shared, %q is a folder", s.Node)
		}
		if err := user(s.As, "share of "+s.Node); err != nil {
			return err
		}
	}
	for _, f := range p.Favorites {
		if _, ok := nodes[f.Node]; !ok {
			return invalid("favorite references unknown node %q", f.Node)
		}
		if err := user(f.As, "favorite of "+f.Node); err != nil {
			return err
		}
	}
	for _, m := range p.Mutations {
		switch m.Action {
		case ActionDelete, ActionTrash, ActionUnshare, ActionUnfavorite:
		default:
			return invalid("unknown mutation %q", m.Action)
		}
		if _, ok := nodes[m.Node]; !ok {
			return invalid("mutation %s references unknown node %q", m.Action, m.Node)
		}
		if err := user(m.As, "mutation of "+m.Node); err != nil {
			return err
		}
	}
	for _, list := range [][]Expectation{p.Settle, p.Final} {
		for _, e := range list {
			if !e.View.valid() {
				return invalid("unknown view %q", e.View)
			}
			if e.Count < 0 {
				return invalid("negative count for view %q", e.View)
			}
			if err := user(e.As, "expectation on "+string(e.View)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n NodeSpec) withDefaults() NodeSpec {
	if n.Kind == "" {
		n.Kind = KindFile
	}
	if n.Name == "" {
		n.Name = n.Key
	}
	return n
}

func (n NodeSpec) nodeType() string {
	if n.Kind == KindFolder {
		return client.TypeFolder
	}
	return client.TypeContent
}
