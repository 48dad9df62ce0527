// Package reader reads Apache Parquet files into the engine's row
// model. Parquet files sitting next to metadata documents attach as
// extra tables during loading.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/metaq/metaq/table"
)

// Reader reads a parquet file's rows.
type Reader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewReader opens and validates a parquet file.
//
//	r, err := reader.NewReader("data.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &Reader{
		file:   file,
		pqFile: pqFile,
	}, nil
}

// ReadAll reads every row into memory. Column values are normalized to
// the engine's tagged scalars; columns with values no scalar can
// represent are skipped. Column order follows the parquet schema.
func (r *Reader) ReadAll() ([]table.Row, error) {
	fields := make([]string, 0)
	for _, f := range r.pqFile.Schema().Fields() {
		fields = append(fields, f.Name())
	}

	pr := parquet.NewReader(r.pqFile)
	defer func() { _ = pr.Close() }()

	var rows []table.Row
	for {
		rec := make(map[string]interface{})
		err := pr.Read(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := table.NewRow()
		for _, name := range fields {
			raw, ok := rec[name]
			if !ok {
				continue
			}
			v, err := table.FromGo(raw)
			if err != nil {
				continue
			}
			row = row.Set(name, v)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// Close releases the underlying file handle. Safe to call more than
// once.
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// ReadFile reads all rows from a parquet file in one call.
func ReadFile(path string) ([]table.Row, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.ReadAll()
}
