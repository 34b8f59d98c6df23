package pages

import (
	"regexp"
	"strconv"
	"strings"
)

// CSS selectors of the web client.
const (
	loginUsername = "#username"
	loginPassword = "#password"
	loginButton   = "#login-button"
	appShell      = ".app-sidenav"

	sidenavPersonalFiles = `[id="app.navbar.personalFiles"]`
	sidenavFileLibraries = `[id="app.navbar.libraries.menu"]`
	sidenavSharedFiles   = `[id="app.navbar.shared"]`
	sidenavRecentFiles   = `[id="app.navbar.recentFiles"]`
	sidenavFavorites     = `[id="app.navbar.favorites"]`
	sidenavTrash         = `[id="app.navbar.trashcan"]`

	tableBody         = ".adf-datatable-body"
	tableLoading      = ".adf-datatable .mat-progress-spinner"
	tableHeaderCell   = ".adf-datatable-header .adf-datatable-cell-header"
	tableSortedAsc    = ".adf-datatable-header .adf-datatable__header--sorted-asc"
	tableSortedDesc   = ".adf-datatable-header .adf-datatable__header--sorted-desc"
	tableNameLink     = ".adf-datatable-link"
	tableLocationLink = ".aca-location-link a"
	searchResultLink  = ".aca-search-results-row .aca-link"

	breadcrumbItem    = ".adf-breadcrumb .adf-breadcrumb-item"
	breadcrumbCurrent = ".adf-breadcrumb .adf-breadcrumb-item-current"

	viewerContainer = ".adf-viewer-container"

	searchButton     = "#app-search-button"
	searchControl    = "#app-control-input"
	searchOptionFile = "#content"
	searchOptionDir  = "#folder"
)

// rowSelector returns the selector of the row of an item of the document
// list, found by its name.
func rowSelector(name string) string {
	return ".adf-datatable-body .adf-datatable-row[aria-label=" + cssString(name) + "]"
}

// cssString returns s as a double-quoted CSS string. Only the quote, the
// backslash and the control characters are escaped; the other characters,
// non-ASCII included, are kept as they are.
func cssString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// A hex escape ends with a space, which is not part of the value.
			b.WriteByte('\\')
			b.WriteString(strconv.FormatInt(int64(r), 16))
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// exactText returns a JS regular expression matching text, with optional
// surrounding blanks.
func exactText(text string) string {
	return `^\s*` + regexp.QuoteMeta(text) + `\s*$`
}
