//go:build integration

package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contentapp/e2e/tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startApp(t *testing.T) (*Browser, *BrowsingPage) {
	bin := testutils.NeedBrowser(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "testdata/app.html")
	}))
	t.Cleanup(ts.Close)

	b, err := Launch(context.Background(), Options{
		AppURL:   ts.URL + "/",
		Bin:      bin,
		Headless: true,
		Timeout:  5 * time.Second,
		Flags:    []string{"--no-sandbox"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, NewLoginPage(b).LoginWith(context.Background(), "alice", ""))
	return b, NewBrowsingPage(b)
}

func TestBrowsingPage(t *testing.T) {
	ctx := context.Background()
	b, page := startApp(t)

	t.Run("Columns", func(t *testing.T) {
		require.NoError(t, page.ClickSharedFiles(ctx))
		headers, err := page.Table.ColumnHeaders(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Location", "Size", "Modified", "Modified by", "Shared by"}, headers)

		col, err := page.Table.SortedColumn(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Modified", col)
		order, err := page.Table.SortOrder(ctx)
		require.NoError(t, err)
		assert.Equal(t, SortDesc, order)
	})

	t.Run("Presence", func(t *testing.T) {
		require.NoError(t, page.ClickSharedFiles(ctx))
		present, err := page.Table.IsItemPresent(ctx, "nested.txt")
		require.NoError(t, err)
		assert.True(t, present)
		present, err = page.Table.IsItemPresent(ctx, "missing.txt")
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("Location", func(t *testing.T) {
		require.NoError(t, page.ClickSharedFiles(ctx))
		loc, err := page.Table.ItemLocation(ctx, "nested.txt")
		require.NoError(t, err)
		assert.Equal(t, "folder1", loc)
		tooltip, err := page.Table.ItemLocationTooltip(ctx, "siteFile.txt")
		require.NoError(t, err)
		assert.Equal(t, "File Libraries/site1", tooltip)

		require.NoError(t, page.Table.ClickItemLocation(ctx, "siteFile.txt"))
		items, err := page.Breadcrumb.Items(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"My Libraries", "site1"}, items)
	})

	t.Run("Trash", func(t *testing.T) {
		require.NoError(t, page.ClickTrash(ctx))
		present, err := page.Table.IsItemPresent(ctx, "deleted.txt")
		require.NoError(t, err)
		assert.True(t, present)
		link, err := page.Table.HasNameLink(ctx, "deleted.txt")
		require.NoError(t, err)
		assert.False(t, link)
	})

	t.Run("Viewer", func(t *testing.T) {
		require.NoError(t, page.ClickFavorites(ctx))
		require.NoError(t, page.Table.ClickNameLink(ctx, "file1.txt"))
		opened, err := page.Viewer.IsOpened(ctx)
		require.NoError(t, err)
		assert.True(t, opened)
		require.NoError(t, PressEscape(ctx, b))
	})

	t.Run("Folder", func(t *testing.T) {
		require.NoError(t, page.ClickPersonalFiles(ctx))
		require.NoError(t, page.Table.ClickNameLink(ctx, "folder1"))
		current, err := page.Breadcrumb.CurrentItem(ctx)
		require.NoError(t, err)
		assert.Equal(t, "folder1", current)
	})

	t.Run("Search", func(t *testing.T) {
		require.NoError(t, page.Search.ClickSearchButton(ctx))
		require.NoError(t, page.Search.CheckFilesAndFolders(ctx))
		require.NoError(t, page.Search.SearchFor(ctx, "file1.txt"))
		require.NoError(t, page.Table.WaitForBody(ctx))
		link, err := page.Table.HasSearchResultLink(ctx, "file1.txt")
		require.NoError(t, err)
		assert.True(t, link)
		require.NoError(t, page.Table.ClickSearchResultLink(ctx, "file1.txt"))
		opened, err := page.Viewer.IsOpened(ctx)
		require.NoError(t, err)
		assert.True(t, opened)
	})

	t.Run("NotFound", func(t *testing.T) {
		require.NoError(t, page.ClickRecentFiles(ctx))
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		_, err := page.Table.ItemLocation(ctx, "file1.txt")
		assert.ErrorIs(t, err, ErrElementNotFound)
	})

	t.Run("Open", func(t *testing.T) {
		require.NoError(t, b.Open(ctx, "/#/favorites"))
		u, err := b.CurrentURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, b.URL("/#/favorites"), u)
	})

	t.Run("Screenshot", func(t *testing.T) {
		png, err := b.Screenshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	})
}
