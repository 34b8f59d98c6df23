package pages

import (
	"context"
	"fmt"
)

// BrowsingPage is the main page of the web client: the sidenav, the header
// with the search input, and the document list with its breadcrumb.
type BrowsingPage struct {
	b *Browser

	Table      *DataTable
	Breadcrumb *Breadcrumb
	Viewer     *Viewer
	Search     *SearchInput
}

// NewBrowsingPage returns the browsing page of the browser.
func NewBrowsingPage(b *Browser) *BrowsingPage {
	return &BrowsingPage{
		b:          b,
		Table:      &DataTable{b: b},
		Breadcrumb: &Breadcrumb{b: b},
		Viewer:     &Viewer{b: b},
		Search:     &SearchInput{b: b},
	}
}

// ClickPersonalFiles opens the Personal Files list and waits for it.
func (p *BrowsingPage) ClickPersonalFiles(ctx context.Context) error {
	return p.clickSidenav(ctx, "Personal Files", sidenavPersonalFiles)
}

// ClickFileLibraries opens the File Libraries list and waits for it.
func (p *BrowsingPage) ClickFileLibraries(ctx context.Context) error {
	return p.clickSidenav(ctx, "File Libraries", sidenavFileLibraries)
}

// ClickSharedFiles opens the Shared Files list and waits for it.
func (p *BrowsingPage) ClickSharedFiles(ctx context.Context) error {
	return p.clickSidenav(ctx, "Shared Files", sidenavSharedFiles)
}

// ClickRecentFiles opens the Recent Files list and waits for it.
func (p *BrowsingPage) ClickRecentFiles(ctx context.Context) error {
	return p.clickSidenav(ctx, "Recent Files", sidenavRecentFiles)
}

// ClickFavorites opens the Favorites list and waits for it.
func (p *BrowsingPage) ClickFavorites(ctx context.Context) error {
	return p.clickSidenav(ctx, "Favorites", sidenavFavorites)
}

// ClickTrash opens the Trash list and waits for it.
func (p *BrowsingPage) ClickTrash(ctx context.Context) error {
	return p.clickSidenav(ctx, "Trash", sidenavTrash)
}

func (p *BrowsingPage) clickSidenav(ctx context.Context, label, selector string) error {
	el, err := p.b.element(ctx, label+" link", selector)
	if err != nil {
		return err
	}
	if err = click(el); err != nil {
		return fmt.Errorf("click %s: %w", label, err)
	}
	if err = p.Table.WaitForBody(ctx); err != nil {
		return fmt.Errorf("open %s: %w", label, err)
	}
	return nil
}
