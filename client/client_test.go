package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/contentapp/e2e/client/auth"
	"github.com/contentapp/e2e/client/request"
	"github.com/contentapp/e2e/tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClients(t *testing.T) (*testutils.Repository, *Client, *Client) {
	repo := testutils.StartRepository(t)
	admin := &Client{URL: repo.URL, Username: "admin", Password: "admin"}
	ctx := context.Background()
	_, err := admin.CreatePerson(ctx, PersonOptions{ID: "bob", FirstName: "Bob", Password: "secret"})
	require.NoError(t, err)
	bob := &Client{URL: repo.URL, Username: "bob", Password: "secret", AuthStorage: auth.NewMemStorage()}
	return repo, admin, bob
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	repo, admin, bob := newTestClients(t)

	t.Run("WrongCredentials", func(t *testing.T) {
		c := &Client{URL: repo.URL, Username: "bob", Password: "nope"}
		_, err := c.GetPerson(ctx, "-me-")
		assert.ErrorIs(t, err, auth.ErrWrongCredentials)
	})

	t.Run("StaticAuthorizer", func(t *testing.T) {
		c := &Client{URL: repo.URL, Authorizer: &request.BasicAuthorizer{Username: "bob", Password: "secret"}}
		p, err := c.GetPerson(ctx, "-me-")
		require.NoError(t, err)
		assert.Equal(t, "bob", p.ID)
	})

	t.Run("People", func(t *testing.T) {
		p, err := bob.GetPerson(ctx, "-me-")
		require.NoError(t, err)
		assert.Equal(t, "Bob", p.FirstName)
		assert.Equal(t, "bob@example.com", p.Email)

		_, err = bob.CreatePerson(ctx, PersonOptions{ID: "eve"})
		assert.True(t, request.IsStatus(err, http.StatusForbidden))

		_, err = admin.GetPerson(ctx, "nobody")
		assert.True(t, request.IsNotFound(err))
		var reqErr *request.Error
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, "person not found", reqErr.Detail)
	})

	t.Run("Nodes", func(t *testing.T) {
		folder, err := bob.CreateFolder(ctx, "docs", "")
		require.NoError(t, err)
		assert.True(t, folder.IsFolder)
		file, err := bob.CreateFile(ctx, "a.txt", folder.ID)
		require.NoError(t, err)
		assert.Equal(t, folder.ID, file.ParentID)

		_, err = bob.CreateFolder(ctx, "docs", "")
		assert.True(t, request.IsConflict(err))

		got, err := bob.GetNode(ctx, MyNodeID, "docs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, file.ID, got.ID)
		require.NotNil(t, got.Path)
		assert.Equal(t, "/Company Home/User Homes/bob/docs", got.Path.Name)

		children, err := bob.ListChildren(ctx, folder.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "a.txt", children[0].Name)

		require.NoError(t, bob.DeleteNode(ctx, file.ID, false))
		assert.True(t, repo.InTrash(file.ID))
		n, err := bob.CountDeletedNodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, bob.EmptyTrash(ctx))
		assert.False(t, repo.HasNode(file.ID))
	})

	t.Run("Pagination", func(t *testing.T) {
		folder, err := bob.CreateFolder(ctx, "many", "")
		require.NoError(t, err)
		for _, name := range []string{"1", "2", "3", "4", "5"} {
			_, err = bob.CreateFile(ctx, name, folder.ID)
			require.NoError(t, err)
		}
		all, err := listAll[*Node](ctx, bob, nodePath(folder.ID)+"/children", ListOptions{MaxItems: 2})
		require.NoError(t, err)
		assert.Len(t, all, 5)
		total, err := count(ctx, bob, nodePath(folder.ID)+"/children")
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})

	t.Run("SharedLinks", func(t *testing.T) {
		f1, err := bob.CreateFile(ctx, "s1.txt", "")
		require.NoError(t, err)
		f2, err := bob.CreateFile(ctx, "s2.txt", "")
		require.NoError(t, err)
		links, err := bob.ShareFiles(ctx, []string{f1.ID, f2.ID})
		require.NoError(t, err)
		assert.Len(t, links, 2)

		_, err = bob.ShareFiles(ctx, []string{f1.ID})
		assert.True(t, request.IsConflict(err))

		n, err := admin.CountSharedLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, bob.UnshareFile(ctx, "s2.txt"))
		assert.Equal(t, 1, repo.SharedCount())
		assert.ErrorIs(t, bob.UnshareFile(ctx, "s2.txt"), ErrNotFound)

		list, err := bob.ListSharedLinks(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Bob", list[0].SharedByUser.DisplayName)
	})

	t.Run("Favorites", func(t *testing.T) {
		file, err := bob.CreateFile(ctx, "fav.txt", "")
		require.NoError(t, err)
		folder, err := bob.CreateFolder(ctx, "fav-folder", "")
		require.NoError(t, err)
		_, err = bob.AddFavorite(ctx, FavoriteFile, file.ID)
		require.NoError(t, err)
		_, err = bob.AddFavorite(ctx, FavoriteFolder, folder.ID)
		require.NoError(t, err)
		_, err = bob.AddFavorite(ctx, "bogus", folder.ID)
		assert.Error(t, err)

		n, err := bob.CountFavorites(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		favs, err := bob.ListFavorites(ctx)
		require.NoError(t, err)
		require.Len(t, favs, 2)
		names := []string{favs[0].Node().Name, favs[1].Node().Name}
		assert.ElementsMatch(t, []string{"fav.txt", "fav-folder"}, names)

		require.NoError(t, bob.RemoveFavorite(ctx, file.ID))
		assert.Equal(t, 1, repo.FavoritesCount("bob"))
	})

	t.Run("Sites", func(t *testing.T) {
		site, err := admin.CreateSite(ctx, SiteOptions{ID: "team"})
		require.NoError(t, err)
		assert.Equal(t, SitePublic, site.Visibility)
		assert.Equal(t, SiteManager, site.Role)

		m, err := admin.AddSiteMember(ctx, "team", "bob", "")
		require.NoError(t, err)
		assert.Equal(t, SiteConsumer, m.Role)

		docLib, err := admin.GetDocLibID(ctx, "team")
		require.NoError(t, err)
		file, err := admin.CreateFile(ctx, "plan.txt", docLib)
		require.NoError(t, err)
		got, err := admin.GetNode(ctx, file.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "/Company Home/Sites/team/documentLibrary", got.Path.Name)

		sites, err := bob.ListSites(ctx)
		require.NoError(t, err)
		assert.Len(t, sites, 1)

		require.NoError(t, admin.DeleteSite(ctx, "team", true))
		_, err = admin.GetSite(ctx, "team")
		assert.True(t, request.IsNotFound(err))
		assert.False(t, repo.HasNode(file.ID))
	})

	t.Run("Upload", func(t *testing.T) {
		content := []byte("archive content")
		n, err := bob.Upload(ctx, UploadOptions{
			Name:         "report.tar",
			RelativePath: "Builds/app/42",
			Contents:     bytes.NewReader(content),
			Size:         int64(len(content)),
		})
		require.NoError(t, err)
		assert.Equal(t, "report.tar", n.Name)
		stored, ok := repo.Content(n.ID)
		require.True(t, ok)
		assert.Equal(t, content, stored)

		_, err = bob.Upload(ctx, UploadOptions{
			Name:         "report.tar",
			RelativePath: "Builds/app/42",
			Contents:     bytes.NewReader(content),
		})
		assert.True(t, request.IsConflict(err))

		renamed, err := bob.Upload(ctx, UploadOptions{
			Name:         "report.tar",
			RelativePath: "Builds/app/42",
			AutoRename:   true,
			Contents:     bytes.NewReader(content),
		})
		require.NoError(t, err)
		assert.Equal(t, "report-1.tar", renamed.Name)
	})

	t.Run("DeletePerson", func(t *testing.T) {
		require.NoError(t, admin.Logout(ctx))
		require.NoError(t, admin.DeletePerson(ctx, "bob"))
		assert.False(t, repo.HasPerson("bob"))
	})
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()
	_, admin, bob := newTestClients(t)

	t.Run("Person", func(t *testing.T) {
		res, err := admin.EnsurePerson(ctx, PersonOptions{ID: "carol"})
		require.NoError(t, err)
		assert.True(t, res.Created())
		res, err = admin.EnsurePerson(ctx, PersonOptions{ID: "carol"})
		require.NoError(t, err)
		assert.Equal(t, AlreadyExists, res.Outcome)
		assert.Equal(t, "carol", res.Value.ID)
	})

	t.Run("Site", func(t *testing.T) {
		res, err := admin.EnsureSite(ctx, SiteOptions{ID: "lib"})
		require.NoError(t, err)
		assert.Equal(t, Created, res.Outcome)
		res, err = admin.EnsureSite(ctx, SiteOptions{ID: "lib"})
		require.NoError(t, err)
		assert.Equal(t, AlreadyExists, res.Outcome)

		m, err := admin.EnsureSiteMember(ctx, "lib", "bob", SiteContributor)
		require.NoError(t, err)
		assert.True(t, m.Created())
		m, err = admin.EnsureSiteMember(ctx, "lib", "bob", SiteContributor)
		require.NoError(t, err)
		assert.False(t, m.Created())
	})

	t.Run("Folder", func(t *testing.T) {
		opts := NodeOptions{Name: "retry-1", RelativePath: "Builds/app/7"}
		res, err := bob.EnsureFolder(ctx, opts)
		require.NoError(t, err)
		assert.True(t, res.Created())
		again, err := bob.EnsureFolder(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, AlreadyExists, again.Outcome)
		assert.Equal(t, res.Value.ID, again.Value.ID)

		_, err = bob.CreateFile(ctx, "plain", "")
		require.NoError(t, err)
		_, err = bob.EnsureFolder(ctx, NodeOptions{Name: "plain"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("NotRecoverable", func(t *testing.T) {
		_, err := bob.EnsurePerson(ctx, PersonOptions{ID: "dave"})
		assert.True(t, request.IsStatus(err, http.StatusForbidden))
	})

	t.Run("Outcome", func(t *testing.T) {
		assert.Equal(t, "created", Created.String())
		assert.Equal(t, "already exists", AlreadyExists.String())
		assert.Equal(t, "Outcome(7)", Outcome(7).String())
	})
}
