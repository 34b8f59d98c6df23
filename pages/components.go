package pages

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/input"
)

// Breadcrumb is the path of the folder displayed in the document list.
type Breadcrumb struct {
	b *Browser
}

// Items returns the labels of the breadcrumb, from the root to the current
// folder.
func (c *Breadcrumb) Items(ctx context.Context) ([]string, error) {
	if _, err := c.b.element(ctx, "breadcrumb", breadcrumbItem); err != nil {
		return nil, err
	}
	els, err := c.b.page.Context(ctx).Elements(breadcrumbItem)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(els))
	for _, el := range els {
		label, err := text(el)
		if err != nil {
			return nil, err
		}
		items = append(items, label)
	}
	return items, nil
}

// CurrentItem returns the label of the current folder.
func (c *Breadcrumb) CurrentItem(ctx context.Context) (string, error) {
	el, err := c.b.element(ctx, "current breadcrumb item", breadcrumbCurrent)
	if err != nil {
		return "", err
	}
	return text(el)
}

// Viewer is the file preview.
type Viewer struct {
	b *Browser
}

// IsOpened waits for the viewer, and returns false if it has not shown up
// before the timeout.
func (v *Viewer) IsOpened(ctx context.Context) (bool, error) {
	el, err := v.b.element(ctx, "viewer", viewerContainer)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return el.Visible()
}

// SearchInput is the search field of the header.
type SearchInput struct {
	b *Browser
}

// ClickSearchButton opens the search field.
func (s *SearchInput) ClickSearchButton(ctx context.Context) error {
	el, err := s.b.element(ctx, "search button", searchButton)
	if err != nil {
		return err
	}
	if err = click(el); err != nil {
		return fmt.Errorf("click search button: %w", err)
	}
	_, err = s.b.element(ctx, "search field", searchControl)
	return err
}

// CheckFilesAndFolders restricts the search to files and folders, leaving
// the libraries out.
func (s *SearchInput) CheckFilesAndFolders(ctx context.Context) error {
	for _, option := range []string{searchOptionFile, searchOptionDir} {
		if err := s.check(ctx, option); err != nil {
			return err
		}
	}
	return nil
}

func (s *SearchInput) check(ctx context.Context, option string) error {
	box, err := s.b.element(ctx, "search option "+option, option+" input")
	if err != nil {
		return err
	}
	checked, err := box.Property("checked")
	if err != nil {
		return err
	}
	if checked.Bool() {
		return nil
	}
	label, err := s.b.element(ctx, "search option "+option, option+" label")
	if err != nil {
		return err
	}
	return click(label)
}

// SearchFor types the text in the search field and submits it.
func (s *SearchInput) SearchFor(ctx context.Context, text string) error {
	field, err := s.b.element(ctx, "search field", searchControl)
	if err != nil {
		return err
	}
	if err = field.SelectAllText(); err != nil {
		return err
	}
	if err = field.Input(text); err != nil {
		return fmt.Errorf("type search: %w", err)
	}
	if err = field.Type(input.Enter); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	log.Debugf("Searching for %q", text)
	return nil
}
