package fixture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlan(t *testing.T) {
	plan, err := LoadPlanFile("plans/shared-files.yaml")
	require.NoError(t, err)
	assert.Len(t, plan.Users, 1)
	assert.Equal(t, "Alice", plan.Users[0].FirstName)
	require.Len(t, plan.Sites, 1)
	assert.Equal(t, "SiteConsumer", plan.Sites[0].Members[0].Role)
	assert.Len(t, plan.Nodes, 6)
	assert.Equal(t, KindFolder, plan.Nodes[1].Kind)
	assert.Equal(t, "folder", plan.Nodes[2].Parent)
	assert.Len(t, plan.Shares, 5)
	assert.Equal(t, []Expectation{{View: ViewShared, As: "user", Count: 5}}, plan.Settle)
	assert.Equal(t, Mutation{Action: ActionUnshare, Node: "file3"}, plan.Mutations[1])

	_, err = LoadPlan(strings.NewReader("users:\n  - key: a\n    unknown: field\n"))
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want string
	}{
		{
			name: "duplicate user",
			plan: Plan{Users: []UserSpec{{Key: "a"}, {Key: "a"}}},
			want: `duplicate user "a"`,
		},
		{
			name: "unknown owner",
			plan: Plan{Nodes: []NodeSpec{{Key: "n", Owner: "ghost"}}},
			want: `unknown user "ghost"`,
		},
		{
			name: "parent declared after the child",
			plan: Plan{Nodes: []NodeSpec{
				{Key: "child", Parent: "dir"},
				{Key: "dir", Kind: KindFolder},
			}},
			want: `unknown parent "dir"`,
		},
		{
			name: "parent is a file",
			plan: Plan{Nodes: []NodeSpec{
				{Key: "file"},
				{Key: "child", Parent: "file"},
			}},
			want: "is not a folder",
		},
		{
			name: "parent and site",
			plan: Plan{
				Sites: []SiteSpec{{Key: "s"}},
				Nodes: []NodeSpec{
					{Key: "dir", Kind: KindFolder},
					{Key: "n", Parent: "dir", Site: "s"},
				},
			},
			want: "both a parent and a site",
		},
		{
			name: "shared folder",
			plan: Plan{
				Nodes:  []NodeSpec{{Key: "dir", Kind: KindFolder}},
				Shares: []ShareSpec{{Node: "dir"}},
			},
			want: "only files can be shared",
		},
		{
			name: "unknown mutation",
			plan: Plan{
				Nodes:     []NodeSpec{{Key: "n"}},
				Mutations: []Mutation{{Action: "rename", Node: "n"}},
			},
			want: `unknown mutation "rename"`,
		},
		{
			name: "unknown view",
			plan: Plan{Final: []Expectation{{View: "recent", Count: 1}}},
			want: `unknown view "recent"`,
		},
		{
			name: "unknown member",
			plan: Plan{Sites: []SiteSpec{{Key: "s", Members: []MemberSpec{{User: "ghost"}}}}},
			want: `unknown member "ghost"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPlan)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	valid := Plan{
		Users:     []UserSpec{{Key: "u"}},
		Sites:     []SiteSpec{{Key: "s", Owner: "u"}},
		Nodes:     []NodeSpec{{Key: "dir", Kind: KindFolder, Site: "s"}, {Key: "f", Parent: "dir"}},
		Shares:    []ShareSpec{{Node: "f", As: "u"}},
		Favorites: []FavoriteSpec{{Node: "dir"}},
		Final:     []Expectation{{View: ViewFavorites, Count: 1}},
	}
	assert.NoError(t, valid.Validate())
}

func TestParseView(t *testing.T) {
	v, err := ParseView("trash")
	require.NoError(t, err)
	assert.Equal(t, ViewTrash, v)
	_, err = ParseView("recent")
	assert.Error(t, err)
}

func TestBuiltinPlans(t *testing.T) {
	assert.Equal(t, []string{"shared-files", "single-click"}, BuiltinPlans())

	plan, err := OpenPlan("single-click")
	require.NoError(t, err)
	assert.Len(t, plan.Nodes, 6)

	_, err = OpenPlan("nope")
	assert.ErrorContains(t, err, `no builtin plan "nope"`)
}
