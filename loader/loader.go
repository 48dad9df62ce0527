// Package loader builds a Database from a folder tree of metadata
// documents.
//
// Every subfolder of the root holding a metadata.json contributes one
// row per top-level document key: the key names the table, the nested
// object's fields become the row, and the folder name becomes the
// row's iid. Parquet files directly under the root attach as extra
// tables named after the file.
//
// Folders are visited in sorted name order, so row order inside each
// table is deterministic. Documents that fail to parse are skipped
// with a warning; one broken folder never fails the whole load.
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/metaq/metaq/reader"
	"github.com/metaq/metaq/table"
)

// MetadataFile is the document name looked up inside each folder.
const MetadataFile = "metadata.json"

// Loader scans a base path into tables.
type Loader struct {
	basePath     string
	metadataFile string
	log          *logrus.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithMetadataFile overrides the per-folder document name.
func WithMetadataFile(name string) Option {
	return func(l *Loader) { l.metadataFile = name }
}

// WithLogger overrides the loader's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// New creates a loader over a base path.
func New(basePath string, opts ...Option) *Loader {
	l := &Loader{
		basePath:     basePath,
		metadataFile: MetadataFile,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load scans the base path and builds the database.
func (l *Loader) Load() (*table.Database, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var tableOrder []string
	rowsByTable := make(map[string][]table.Row)

	for _, name := range names {
		folder := filepath.Join(l.basePath, name)
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			continue
		}
		docPath := filepath.Join(folder, l.metadataFile)
		f, err := os.Open(docPath)
		if err != nil {
			continue
		}

		docEntries, err := decodeDocument(f)
		_ = f.Close()
		if err != nil {
			l.log.WithFields(logrus.Fields{
				"path":  docPath,
				"error": err,
			}).Warn("skipping unreadable metadata document")
			continue
		}

		for _, entry := range docEntries {
			for _, field := range entry.skipped {
				l.log.WithFields(logrus.Fields{
					"path":  docPath,
					"table": entry.name,
					"field": field,
				}).Warn("dropping non-scalar field")
			}

			row := table.NewRow().Set(table.IIDField, table.String(name))
			switch {
			case entry.flat:
				for _, field := range entry.row.Fields() {
					if field == table.IIDField {
						continue
					}
					row = row.Set(field, entry.row.Get(field))
				}
			case entry.scalar.IsNull() && len(entry.skipped) > 0:
				// Array payload: nothing representable beyond the iid.
			default:
				row = row.Set("value", entry.scalar)
			}

			if _, ok := rowsByTable[entry.name]; !ok {
				tableOrder = append(tableOrder, entry.name)
			}
			rowsByTable[entry.name] = append(rowsByTable[entry.name], row)
		}
	}

	db := table.NewDatabase()
	for _, name := range tableOrder {
		db.Put(table.New(name, rowsByTable[name]))
	}

	if err := l.attachParquet(db, names); err != nil {
		return nil, err
	}
	return db, nil
}

// attachParquet registers every *.parquet file directly under the base
// path as its own table. Rows without an iid column get a synthetic
// one from the file stem and row index.
func (l *Loader) attachParquet(db *table.Database, names []string) error {
	for _, name := range names {
		if !strings.HasSuffix(name, ".parquet") {
			continue
		}
		path := filepath.Join(l.basePath, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		rows, err := reader.ReadFile(path)
		if err != nil {
			l.log.WithFields(logrus.Fields{
				"path":  path,
				"error": err,
			}).Warn("skipping unreadable parquet file")
			continue
		}

		stem := strings.TrimSuffix(name, ".parquet")
		for i, r := range rows {
			if !r.Has(table.IIDField) {
				rows[i] = table.NewRow().
					Set(table.IIDField, table.String(stem+"_"+strconv.Itoa(i)))
				for _, f := range r.Fields() {
					rows[i] = rows[i].Set(f, r.Get(f))
				}
			}
		}
		db.Put(table.New(stem, rows))
	}
	return nil
}

// Load scans basePath with the default configuration.
func Load(basePath string) (*table.Database, error) {
	return New(basePath).Load()
}
