//go:build e2e

package listviews_test

import (
	"testing"

	"github.com/contentapp/e2e/e2e"
	"github.com/contentapp/e2e/pages"
	"github.com/stretchr/testify/suite"
)

// SharedFilesSuite checks the Shared Files list: a file shared by the admin
// in a site, files shared by the user in their home, one of them deleted and
// one unshared after sharing.
type SharedFilesSuite struct {
	e2e.Harness
}

func TestSharedFiles(t *testing.T) {
	suite.Run(t, &SharedFilesSuite{Harness: e2e.Harness{PlanName: "shared-files", LoginAs: "user"}})
}

func (s *SharedFilesSuite) SetupTest() {
	s.Do(s.Page.ClickSharedFiles(s.Ctx()))
}

func (s *SharedFilesSuite) TestColumns() {
	columns := s.Strings(s.Page.Table.ColumnHeaders(s.Ctx()))
	s.Equal([]string{"Name", "Location", "Size", "Modified", "Modified by", "Shared by"}, columns)
}

func (s *SharedFilesSuite) TestDefaultSorting() {
	s.Equal("Modified", s.String(s.Page.Table.SortedColumn(s.Ctx())))
	s.Equal(pages.SortDesc, s.String(s.Page.Table.SortOrder(s.Ctx())))
}

func (s *SharedFilesSuite) TestFilesSharedByEveryone() {
	for _, key := range []string{"siteFile", "file1"} {
		s.True(s.Bool(s.Page.Table.IsItemPresent(s.Ctx(), s.Name(key))), "%s not displayed", key)
	}
}

func (s *SharedFilesSuite) TestDeletedFileNotDisplayed() {
	s.False(s.Bool(s.Page.Table.IsItemPresent(s.Ctx(), s.Name("file2"))), "deleted file is displayed")
}

func (s *SharedFilesSuite) TestUnsharedFileNotDisplayed() {
	s.False(s.Bool(s.Page.Table.IsItemPresent(s.Ctx(), s.Name("file3"))), "unshared file is displayed")
}

func (s *SharedFilesSuite) TestLocationColumn() {
	ctx := s.Ctx()
	s.Equal(s.String(s.Fixture.LocationTooltip("file4")), s.String(s.Page.Table.ItemLocationTooltip(ctx, s.Name("file4"))))
	s.Equal(s.String(s.Fixture.Location("siteFile")), s.String(s.Page.Table.ItemLocation(ctx, s.Name("siteFile"))))
	s.Equal(s.String(s.Fixture.Location("file1")), s.String(s.Page.Table.ItemLocation(ctx, s.Name("file1"))))
}

func (s *SharedFilesSuite) TestLocationRedirectHome() {
	s.checkLocationRedirect("file4")
}

func (s *SharedFilesSuite) TestLocationRedirectFolder() {
	s.checkLocationRedirect("file1")
}

func (s *SharedFilesSuite) TestLocationRedirectSite() {
	s.checkLocationRedirect("siteFile")
}

func (s *SharedFilesSuite) checkLocationRedirect(key string) {
	ctx := s.Ctx()
	s.Do(s.Page.Table.ClickItemLocation(ctx, s.Name(key)))
	s.Equal(s.Strings(s.Fixture.LocationBreadcrumb(key)), s.Strings(s.Page.Breadcrumb.Items(ctx)))
}

func (s *SharedFilesSuite) TestLocationTooltip() {
	ctx := s.Ctx()
	for _, key := range []string{"siteFile", "file1"} {
		s.Equal(s.String(s.Fixture.LocationTooltip(key)), s.String(s.Page.Table.ItemLocationTooltip(ctx, s.Name(key))))
	}
}
