package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contentapp/e2e/pkg/wait"
	"github.com/go-rod/rod"
)

// Sort orders of a column.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DataTable is the document list: a header with the sortable columns, and a
// row per item.
type DataTable struct {
	b *Browser
}

// WaitForBody waits for the rows of the list to be displayed.
func (t *DataTable) WaitForBody(ctx context.Context) error {
	if _, err := t.b.element(ctx, "document list", tableBody); err != nil {
		return err
	}
	err := wait.Until(ctx, wait.Options{
		Timeout:     t.b.Timeout(),
		Interval:    100 * time.Millisecond,
		Description: "document list loading",
	}, func(ctx context.Context) (bool, error) {
		loading, _, err := t.b.has(ctx, tableLoading)
		return !loading, err
	})
	if err != nil {
		return fmt.Errorf("%w: loaded document list: %s", ErrElementNotFound, err)
	}
	return nil
}

// ColumnHeaders returns the labels of the columns, in order. The columns
// without a label, like the thumbnail one, are skipped.
func (t *DataTable) ColumnHeaders(ctx context.Context) ([]string, error) {
	if _, err := t.b.element(ctx, "column headers", tableHeaderCell); err != nil {
		return nil, err
	}
	cells, err := t.b.page.Context(ctx).Elements(tableHeaderCell)
	if err != nil {
		return nil, err
	}
	headers := make([]string, 0, len(cells))
	for _, cell := range cells {
		label, err := text(cell)
		if err != nil {
			return nil, err
		}
		if label != "" {
			headers = append(headers, label)
		}
	}
	return headers, nil
}

// SortedColumn returns the label of the column the list is sorted by.
func (t *DataTable) SortedColumn(ctx context.Context) (string, error) {
	el, _, err := t.sortedHeader(ctx)
	if err != nil {
		return "", err
	}
	return text(el)
}

// SortOrder returns the order of the sorted column, SortAsc or SortDesc.
func (t *DataTable) SortOrder(ctx context.Context) (string, error) {
	_, order, err := t.sortedHeader(ctx)
	return order, err
}

func (t *DataTable) sortedHeader(ctx context.Context) (*rod.Element, string, error) {
	el, err := t.b.element(ctx, "sorted column", tableSortedAsc+", "+tableSortedDesc)
	if err != nil {
		return nil, "", err
	}
	class, err := el.Attribute("class")
	if err != nil {
		return nil, "", err
	}
	if class != nil && strings.Contains(*class, "sorted-asc") {
		return el, SortAsc, nil
	}
	return el, SortDesc, nil
}

// IsItemPresent tells if a row is displayed for the item, without waiting.
func (t *DataTable) IsItemPresent(ctx context.Context, name string) (bool, error) {
	present, _, err := t.b.has(ctx, rowSelector(name))
	return present, err
}

// ItemLocation returns the text of the location column of the item.
func (t *DataTable) ItemLocation(ctx context.Context, name string) (string, error) {
	link, err := t.locationLink(ctx, name)
	if err != nil {
		return "", err
	}
	return text(link)
}

// ItemLocationTooltip returns the tooltip of the location column of the
// item: the full path of its parent folder.
func (t *DataTable) ItemLocationTooltip(ctx context.Context, name string) (string, error) {
	link, err := t.locationLink(ctx, name)
	if err != nil {
		return "", err
	}
	if err = link.Hover(); err != nil {
		return "", err
	}
	title, err := link.Attribute("title")
	if err != nil {
		return "", err
	}
	if title == nil {
		return "", fmt.Errorf("%w: tooltip of the location of %s", ErrElementNotFound, name)
	}
	return strings.TrimSpace(*title), nil
}

// ClickItemLocation clicks on the location of the item, and waits for the
// breadcrumb of the parent folder.
func (t *DataTable) ClickItemLocation(ctx context.Context, name string) error {
	link, err := t.locationLink(ctx, name)
	if err != nil {
		return err
	}
	if err = click(link); err != nil {
		return fmt.Errorf("click location of %s: %w", name, err)
	}
	_, err = t.b.element(ctx, "breadcrumb", breadcrumbItem)
	return err
}

func (t *DataTable) locationLink(ctx context.Context, name string) (*rod.Element, error) {
	return t.b.element(ctx, "location of "+name, rowSelector(name)+" "+tableLocationLink)
}

// HasNameLink tells if the name of the item is displayed as a link, without
// waiting.
func (t *DataTable) HasNameLink(ctx context.Context, name string) (bool, error) {
	present, _, err := t.b.has(ctx, rowSelector(name)+" "+tableNameLink)
	return present, err
}

// ClickNameLink clicks on the name of the item: a file opens in the viewer,
// a folder or a library is opened in the list.
func (t *DataTable) ClickNameLink(ctx context.Context, name string) error {
	link, err := t.b.elementWithText(ctx, "link of "+name, rowSelector(name)+" "+tableNameLink, name)
	if err != nil {
		return err
	}
	if err = click(link); err != nil {
		return fmt.Errorf("click %s: %w", name, err)
	}
	return nil
}

// HasSearchResultLink tells if the name of the item is displayed as a link
// in the search results, without waiting.
func (t *DataTable) HasSearchResultLink(ctx context.Context, name string) (bool, error) {
	present, _, err := t.b.has(ctx, rowSelector(name)+" "+searchResultLink)
	return present, err
}

// ClickSearchResultLink clicks on the name of the item in the search
// results.
func (t *DataTable) ClickSearchResultLink(ctx context.Context, name string) error {
	link, err := t.b.elementWithText(ctx, "search result "+name, rowSelector(name)+" "+searchResultLink, name)
	if err != nil {
		return err
	}
	if err = click(link); err != nil {
		return fmt.Errorf("click search result %s: %w", name, err)
	}
	return nil
}
