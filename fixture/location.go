package fixture

import (
	"fmt"
	"strings"
)

// Labels of the roots of the web client, as shown in the location column,
// its tooltip, and the breadcrumb.
const (
	PersonalFilesLabel = "Personal Files"
	FileLibrariesLabel = "File Libraries"
	MyLibrariesLabel   = "My Libraries"
)

// folders returns the names of the folders between the root (the home folder
// or the document library of a site) and the node, and the site of the node
// if any.
func (c *Context) folders(key string) ([]string, *Site, error) {
	n, ok := c.nodes[key]
	if !ok {
		return nil, nil, fmt.Errorf("unknown node %q", key)
	}
	var names []string
	for n.Parent != "" {
		parent, ok := c.nodes[n.Parent]
		if !ok {
			return nil, nil, fmt.Errorf("unknown parent %q of node %q", n.Parent, n.Key)
		}
		names = append([]string{parent.Name}, names...)
		n = parent
	}
	if n.Site == "" {
		return names, nil, nil
	}
	site, ok := c.sites[n.Site]
	if !ok {
		return nil, nil, fmt.Errorf("unknown site %q of node %q", n.Site, n.Key)
	}
	return names, site, nil
}

// Location returns the text of the location column for the node: the parent
// folder, or the site, or Personal Files.
func (c *Context) Location(key string) (string, error) {
	names, site, err := c.folders(key)
	if err != nil {
		return "", err
	}
	switch {
	case len(names) > 0:
		return names[len(names)-1], nil
	case site != nil:
		return site.Title, nil
	default:
		return PersonalFilesLabel, nil
	}
}

// LocationTooltip returns the full path shown in the tooltip of the
// location column, like "Personal Files/folder" or "File Libraries/site".
func (c *Context) LocationTooltip(key string) (string, error) {
	crumbs, err := c.locationPath(key, FileLibrariesLabel)
	if err != nil {
		return "", err
	}
	return strings.Join(crumbs, "/"), nil
}

// LocationBreadcrumb returns the breadcrumb displayed after a click on the
// location of the node, like ["Personal Files", "folder"] or
// ["My Libraries", "site"].
func (c *Context) LocationBreadcrumb(key string) ([]string, error) {
	return c.locationPath(key, MyLibrariesLabel)
}

func (c *Context) locationPath(key, librariesLabel string) ([]string, error) {
	names, site, err := c.folders(key)
	if err != nil {
		return nil, err
	}
	if site != nil {
		return append([]string{librariesLabel, site.Title}, names...), nil
	}
	return append([]string{PersonalFilesLabel}, names...), nil
}
