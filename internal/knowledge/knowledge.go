// Package knowledge holds curriculum grounding text per object, loaded once from a spreadsheet.
package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/config"
	"github.com/nova-ar/arbackend/internal/object"
)

// Entry is the grounding data for one object.
type Entry struct {
	ObjectName      string
	Description     string
	ExampleSentence string
}

// Base is immutable after Load and safe for concurrent lookups.
type Base struct {
	entries map[string]Entry
}

// Empty returns a knowledge base without entries.
func Empty() *Base {
	return &Base{entries: map[string]Entry{}}
}

// Lookup finds the entry for an object name in any letter case.
func (b *Base) Lookup(name string) (Entry, bool) {
	if b == nil {
		return Entry{}, false
	}
	e, ok := b.entries[object.NormalizeName(name)]
	return e, ok
}

func (b *Base) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Names returns the object names in alphabetical order.
func (b *Base) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	ErrMissingColumns  = errors.New("missing required columns")
	ErrUnsupportedFile = errors.New("unsupported knowledge base file")
)

var columnAliases = map[string][]string{
	"object_name":      {"object_name", "object", "name", "nama_benda", "benda", "word"},
	"description":      {"description", "deskripsi", "definition", "fact", "keterangan"},
	"example_sentence": {"example_sentence", "example", "sentence", "contoh_kalimat", "kalimat"},
}

// Load reads a CSV or XLSX table with object name, description and example sentence columns.
// sheet selects the XLSX sheet and is ignored for CSV; the first sheet is used when empty.
func Load(path, sheet string) (*Base, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// FromConfig loads the configured knowledge base. Unless cfg.Strict is set, a file that
// cannot be loaded is logged and replaced by an empty knowledge base.
func FromConfig(cfg config.KnowledgeBaseConfig, logger *zap.Logger) (*Base, error) {
	if cfg.Path == "" {
		return Empty(), nil
	}

	base, err := Load(cfg.Path, cfg.Sheet)
	if err != nil {
		if cfg.Strict {
			return nil, fmt.Errorf("knowledge.Load(%s) > %w", cfg.Path, err)
		}
		logger.Warn("knowledge base not loaded, continuing without grounding data",
			zap.String("path", cfg.Path), zap.Error(err))
		return Empty(), nil
	}
	logger.Info("knowledge base loaded", zap.String("path", cfg.Path), zap.Int("entries", base.Len()))
	return base, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open > %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv.Read > %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenFile > %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("GetRows(%s) > %w", sheet, err)
	}
	return rows, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

func fromRows(rows [][]string) (*Base, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table: %w", ErrMissingColumns)
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[normalizeHeader(h)] = i
	}
	index := make(map[string]int, len(columnAliases))
	var missing []string
	for column, aliases := range columnAliases {
		index[column] = -1
		for _, alias := range aliases {
			if i, ok := header[alias]; ok {
				index[column] = i
				break
			}
		}
		if index[column] == -1 {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("header %v lacks %s: %w", rows[0], strings.Join(missing, ", "), ErrMissingColumns)
	}

	base := Empty()
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		// spreadsheet readers drop trailing empty cells, so a short row has blank cells
		get := func(column string) string {
			i := index[column]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := get("object_name")
		if name == "" {
			// n is zero-based over data rows; the header is line 1
			return nil, fmt.Errorf("row %d: %w", n+2, ErrMissingColumns)
		}
		description := get("description")
		sentence := get("example_sentence")

		key := object.NormalizeName(name)
		base.entries[key] = Entry{
			ObjectName:      key,
			Description:     description,
			ExampleSentence: sentence,
		}
	}
	return base, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
