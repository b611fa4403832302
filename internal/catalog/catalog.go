// Package catalog discovers polygon datasets on disk and keeps the active one
// in memory.
//
// Datasets are organised as a root directory whose subdirectories are named
// groups of shapefiles, plus a fixed uploads directory offered first.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultUploadsLabel = "User uploads"
	DefaultDrawSuffix   = "Draw an area"
)

// Options configures a Catalog.
type Options struct {
	Root         string
	UploadsDir   string
	UploadsLabel string
	// DrawSuffix marks groups that switch map selection into draw mode.
	DrawSuffix string
}

// Group is a named folder of shapefiles.
type Group struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Uploads bool   `json:"uploads,omitempty"`
}

// Shapefile is a loadable .shp file with its display name.
type Shapefile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Catalog lists dataset groups and shapefiles and holds the active dataset.
// It is not safe for concurrent use.
type Catalog struct {
	opts   Options
	active *Dataset
}

// New creates a Catalog.
func New(opts Options) *Catalog {
	if opts.UploadsLabel == "" {
		opts.UploadsLabel = DefaultUploadsLabel
	}
	if opts.DrawSuffix == "" {
		opts.DrawSuffix = DefaultDrawSuffix
	}
	return &Catalog{opts: opts}
}

// Options returns the catalog configuration.
func (c *Catalog) Options() Options { return c.opts }

var lower = cases.Lower(language.Und)

// ListDatasetGroups returns the uploads group followed by every subdirectory of
// the root, in directory listing order.
func (c *Catalog) ListDatasetGroups() ([]Group, error) {
	groups := []Group{{Name: c.opts.UploadsLabel, Path: c.opts.UploadsDir, Uploads: true}}

	dir, err := os.Open(c.opts.Root)
	if err != nil {
		return nil, &ConfigurationError{Root: c.opts.Root, Err: err}
	}
	defer func() { _ = dir.Close() }()

	// File.ReadDir keeps the order the filesystem reports; os.ReadDir sorts.
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, &ConfigurationError{Root: c.opts.Root, Err: err}
	}

	for _, e := range entries {
		path := filepath.Join(c.opts.Root, e.Name())
		if !e.IsDir() {
			info, statErr := os.Stat(path)
			if statErr != nil || !info.IsDir() {
				continue
			}
		}
		groups = append(groups, Group{
			Name: strings.ReplaceAll(e.Name(), "_", " "),
			Path: path,
		})
	}

	zap.L().Debug("catalog: listed dataset groups",
		zap.String("root", c.opts.Root),
		zap.Int("groups", len(groups)),
	)
	return groups, nil
}

// ListShapefiles returns the shapefiles in a group folder. A missing or empty
// folder yields an empty list.
func (c *Catalog) ListShapefiles(groupPath string) ([]Shapefile, error) {
	if groupPath == "" {
		return nil, nil
	}
	dir, err := os.Open(groupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "catalog: open group %s", groupPath)
	}
	defer func() { _ = dir.Close() }()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read group %s", groupPath)
	}

	var out []Shapefile
	index := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".shp" {
			continue
		}
		name := ShapefileDisplayName(e.Name())
		path := filepath.Join(groupPath, e.Name())
		if i, ok := index[name]; ok {
			out[i].Path = path
			continue
		}
		index[name] = len(out)
		out = append(out, Shapefile{Name: name, Path: path})
	}
	return out, nil
}

// ShapefileDisplayName normalizes a shapefile name for display: extension
// stripped, underscores replaced by spaces, lower case.
func ShapefileDisplayName(file string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, ".shp")
	return lower.String(strings.ReplaceAll(base, "_", " "))
}

// IsDrawGroup reports whether a group name selects draw mode.
func (c *Catalog) IsDrawGroup(name string) bool {
	return c.opts.DrawSuffix != "" && strings.HasSuffix(name, c.opts.DrawSuffix)
}

// Activate loads the shapefile at path and makes it the active dataset,
// discarding the previous one. On failure no dataset stays active.
func (c *Catalog) Activate(path string) (*Dataset, error) {
	c.active = nil
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	c.active = ds
	return ds, nil
}

// Active returns the active dataset, or nil.
func (c *Catalog) Active() *Dataset { return c.active }

// Clear drops the active dataset.
func (c *Catalog) Clear() { c.active = nil }
