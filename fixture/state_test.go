package fixture

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadState(t *testing.T) {
	fc := newContext(&Provisioner{})
	fc.users["user"] = &User{Key: "user", ID: "user-abc", Password: "pw", Created: true}
	fc.sites["site"] = &Site{Key: "site", ID: "site-abc", Title: "site-abc", DocLibID: "doclib", Created: true}
	fc.addNode(&Node{Key: "folder", ID: "n1", Name: "folder", Kind: KindFolder, Owner: "user", Created: true})
	fc.addNode(&Node{Key: "file", ID: "n2", Name: "file.txt", Kind: KindFile, Owner: "user", Parent: "folder",
		Created: true, Trashed: true, TrashedBy: "user"})

	var buf bytes.Buffer
	require.NoError(t, fc.Save(&buf))
	assert.Equal(t, map[string]int{"users": 1, "sites": 1, "nodes": 2}, StateSummary(buf.Bytes()))

	loaded, err := LoadState(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "pw", loaded.User("user").Password)
	assert.Equal(t, "doclib", loaded.Site("site").DocLibID)
	nodes := loaded.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "folder", nodes[0].Key)
	assert.True(t, nodes[1].Trashed)

	tooltip, err := loaded.LocationTooltip("file")
	require.NoError(t, err)
	assert.Equal(t, "Personal Files/folder", tooltip)
}

func TestLoadStateErrors(t *testing.T) {
	_, err := LoadState(strings.NewReader("not json"), nil)
	assert.Error(t, err)
	_, err = LoadState(strings.NewReader(`{"version": 42}`), nil)
	assert.ErrorContains(t, err, "unsupported version 42")
}
