package fakerepo_test

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contentapp/e2e/tests/fakerepo"
	"github.com/contentapp/e2e/tests/testutils"
	"github.com/stretchr/testify/assert"
)

func TestServer(t *testing.T) {
	repo := testutils.StartRepository(t)
	e := testutils.CreateTestClient(t, repo.TS.URL)

	api := func(path string) string { return fakerepo.APIPath + path }

	t.Run("Unauthenticated", func(t *testing.T) {
		e.GET(api("/people/-me-")).
			Expect().Status(http.StatusUnauthorized).
			JSON().Object().Path("$.error.statusCode").Number().IsEqual(401)
	})

	t.Run("Tickets", func(t *testing.T) {
		e.POST(fakerepo.TicketsPath).
			WithJSON(map[string]string{"userId": "admin", "password": "wrong"}).
			Expect().Status(http.StatusForbidden)

		ticket := e.POST(fakerepo.TicketsPath).
			WithJSON(map[string]string{"userId": "admin", "password": "admin"}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("entry").Object().Value("id").String().NotEmpty().Raw()

		e.GET(api("/people/-me-")).
			WithBasicAuth(ticket, "").
			Expect().Status(http.StatusUnauthorized)
		e.GET(fakerepo.TicketsPath+"/-me-").
			WithBasicAuth("ROLE_TICKET", ticket).
			Expect().Status(http.StatusOK)
		e.DELETE(fakerepo.TicketsPath+"/-me-").
			WithBasicAuth("ROLE_TICKET", ticket).
			Expect().Status(http.StatusNoContent)
		e.GET(fakerepo.TicketsPath+"/-me-").
			WithBasicAuth("ROLE_TICKET", ticket).
			Expect().Status(http.StatusUnauthorized)
	})

	t.Run("People", func(t *testing.T) {
		body := map[string]string{
			"id": "alice", "firstName": "Alice", "email": "alice@example.com", "password": "alice",
		}
		e.POST(api("/people")).WithBasicAuth("admin", "admin").WithJSON(body).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.id").String().IsEqual("alice")
		e.POST(api("/people")).WithBasicAuth("admin", "admin").WithJSON(body).
			Expect().Status(http.StatusConflict)
		e.POST(api("/people")).WithBasicAuth("alice", "alice").WithJSON(body).
			Expect().Status(http.StatusForbidden)
		assert.True(t, repo.HasPerson("alice"))
	})

	t.Run("NodesAndTrash", func(t *testing.T) {
		folder := e.POST(api("/nodes/-my-/children")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"name": "folder", "nodeType": "cm:folder"}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.id").String().Raw()
		e.POST(api("/nodes/-my-/children")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"name": "folder", "nodeType": "cm:folder"}).
			Expect().Status(http.StatusConflict)

		e.POST(api("/nodes/-my-/children")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"name": "deep.txt", "relativePath": "a/b"}).
			Expect().Status(http.StatusCreated)
		id, ok := repo.FindByPath("alice", "a/b/deep.txt")
		assert.True(t, ok)

		e.GET(api("/nodes/-my-")).
			WithBasicAuth("alice", "alice").
			WithQuery("relativePath", "a/b/deep.txt").
			WithQuery("include", "path").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.entry.path.name").String().IsEqual("/Company Home/User Homes/alice/a/b")

		e.DELETE(api("/nodes/"+folder)).WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusNoContent)
		assert.True(t, repo.InTrash(folder))
		e.GET(api("/deleted-nodes")).WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.list.pagination.totalItems").Number().IsEqual(1)

		e.DELETE(api("/nodes/"+id)).WithQuery("permanent", "true").
			WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusNoContent)
		assert.False(t, repo.HasNode(id))
	})

	t.Run("SharedLinks", func(t *testing.T) {
		file := e.POST(api("/nodes/-my-/children")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"name": "shared.txt"}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.id").String().Raw()
		link := e.POST(api("/shared-links")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"nodeId": file}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.id").String().Raw()
		e.POST(api("/shared-links")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"nodeId": file}).
			Expect().Status(http.StatusConflict)
		e.GET(api("/shared-links")).WithBasicAuth("admin", "admin").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.list.entries[0].entry.sharedByUser.displayName").String().IsEqual("Alice")
		e.DELETE(api("/shared-links/"+link)).WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusNoContent)
		assert.Equal(t, 0, repo.SharedCount())
	})

	t.Run("Favorites", func(t *testing.T) {
		file := e.POST(api("/nodes/-my-/children")).
			WithBasicAuth("alice", "alice").
			WithJSON(map[string]string{"name": "fav.txt"}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.id").String().Raw()
		fav := map[string]interface{}{"target": map[string]interface{}{"file": map[string]string{"guid": file}}}
		e.POST(api("/people/-me-/favorites")).WithBasicAuth("alice", "alice").WithJSON(fav).
			Expect().Status(http.StatusCreated)
		e.POST(api("/people/-me-/favorites")).WithBasicAuth("alice", "alice").WithJSON(fav).
			Expect().Status(http.StatusConflict)
		e.GET(api("/people/alice/favorites")).WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.list.pagination.totalItems").Number().IsEqual(1)
		e.DELETE(api("/people/-me-/favorites/"+file)).WithBasicAuth("alice", "alice").
			Expect().Status(http.StatusNoContent)
	})

	t.Run("Sites", func(t *testing.T) {
		e.POST(api("/sites")).WithBasicAuth("admin", "admin").
			WithJSON(map[string]string{"id": "site-a", "title": "Site A"}).
			Expect().Status(http.StatusCreated)
		// The creator has the site in its favorites.
		assert.Equal(t, 1, repo.FavoritesCount("admin"))
		e.GET(api("/people/-me-/favorites")).WithBasicAuth("admin", "admin").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.list.entries[0].entry.target.site.name").String().IsEqual("site-a")
		e.POST(api("/sites/site-a/members")).WithBasicAuth("admin", "admin").
			WithJSON(map[string]string{"id": "alice", "role": "SiteContributor"}).
			Expect().Status(http.StatusCreated)
		docLib := e.GET(api("/sites/site-a/containers/documentLibrary")).WithBasicAuth("admin", "admin").
			Expect().Status(http.StatusOK).
			JSON().Object().Path("$.entry.id").String().Raw()
		e.POST(api("/nodes/"+docLib+"/children")).WithBasicAuth("admin", "admin").
			WithJSON(map[string]string{"name": "site-file.txt"}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Path("$.entry.parentId").String().IsEqual(docLib)
		e.DELETE(api("/sites/site-a")).WithQuery("permanent", "true").WithBasicAuth("admin", "admin").
			Expect().Status(http.StatusNoContent)
		assert.False(t, repo.HasSite("site-a"))
		assert.Equal(t, 0, repo.FavoritesCount("admin"))
	})

	t.Run("DeletePerson", func(t *testing.T) {
		e.DELETE(api("/people/alice")).WithBasicAuth("admin", "admin").
			Expect().Status(http.StatusNoContent)
		assert.False(t, repo.HasPerson("alice"))
	})
}

func TestIndexDelay(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var elapsed atomic.Int64
	repo := testutils.StartRepository(t, fakerepo.Options{
		IndexDelay: 5 * time.Second,
		Now:        func() time.Time { return start.Add(time.Duration(elapsed.Load())) },
	})
	e := testutils.CreateTestClient(t, repo.TS.URL)

	file := e.POST(fakerepo.APIPath+"/nodes/-my-/children").
		WithBasicAuth("admin", "admin").
		WithJSON(map[string]string{"name": "lagging.txt"}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Path("$.entry.id").String().Raw()
	e.POST(fakerepo.APIPath+"/shared-links").
		WithBasicAuth("admin", "admin").
		WithJSON(map[string]string{"nodeId": file}).
		Expect().Status(http.StatusCreated)

	e.GET(fakerepo.APIPath+"/shared-links").WithBasicAuth("admin", "admin").
		Expect().Status(http.StatusOK).
		JSON().Object().Path("$.list.pagination.totalItems").Number().IsEqual(0)
	assert.Equal(t, 1, repo.SharedCount())

	elapsed.Add(int64(5 * time.Second))
	e.GET(fakerepo.APIPath+"/shared-links").WithBasicAuth("admin", "admin").
		Expect().Status(http.StatusOK).
		JSON().Object().Path("$.list.pagination.totalItems").Number().IsEqual(1)
}
