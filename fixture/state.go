package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/tidwall/gjson"
)

// stateVersion is bumped when the state format changes.
const stateVersion = 1

type state struct {
	Version int     `json:"version"`
	Users   []*User `json:"users"`
	Sites   []*Site `json:"sites"`
	Nodes   []*Node `json:"nodes"`
}

// Save writes the state of the fixture as JSON, to tear it down from another
// process. It contains the passwords of the users.
func (c *Context) Save(w io.Writer) error {
	s := state{
		Version: stateVersion,
		Users:   c.sortedUsers(),
		Sites:   c.sortedSites(),
		Nodes:   c.Nodes(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// LoadState reads a state written by Save. The provisioner gives the
// clients used to act on the resources.
func LoadState(r io.Reader, p *Provisioner) (*Context, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("fixture state: invalid JSON")
	}
	if v := gjson.GetBytes(b, "version").Int(); v != stateVersion {
		return nil, fmt.Errorf("fixture state: unsupported version %d", v)
	}
	var s state
	if err = json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("fixture state: %w", err)
	}
	if p == nil {
		p = &Provisioner{}
	}
	fc := newContext(p)
	for _, u := range s.Users {
		fc.users[u.Key] = u
	}
	for _, site := range s.Sites {
		fc.sites[site.Key] = site
	}
	for _, n := range s.Nodes {
		fc.addNode(n)
	}
	return fc, nil
}

// StateSummary returns the number of resources of each kind in a saved state
// file, without decoding it entirely.
func StateSummary(b []byte) map[string]int {
	return map[string]int{
		"users": int(gjson.GetBytes(b, "users.#").Int()),
		"sites": int(gjson.GetBytes(b, "sites.#").Int()),
		"nodes": int(gjson.GetBytes(b, "nodes.#").Int()),
	}
}

func (c *Context) sortedUsers() []*User {
	users := make([]*User, 0, len(c.users))
	for _, key := range sortedKeys(c.users) {
		users = append(users, c.users[key])
	}
	return users
}

func (c *Context) sortedSites() []*Site {
	sites := make([]*Site, 0, len(c.sites))
	for _, key := range sortedKeys(c.sites) {
		sites = append(sites, c.sites[key])
	}
	return sites
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
