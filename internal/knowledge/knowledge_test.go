package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/config"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func writeXLSX(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "objects.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_CSV(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		wantNames []string
		wantEntry Entry
		wantErr   error
	}{
		{
			name: "canonical header",
			contents: "object_name,description,example_sentence\n" +
				"Book,A book has many pages with words and pictures.,I read a book before bed.\n" +
				"lamp,A lamp gives light.,The lamp is on the desk.\n",
			wantNames: []string{"book", "lamp"},
			wantEntry: Entry{
				ObjectName:      "book",
				Description:     "A book has many pages with words and pictures.",
				ExampleSentence: "I read a book before bed.",
			},
		},
		{
			name: "aliased header with blank lines",
			contents: "Nama Benda,Deskripsi,Contoh Kalimat\n" +
				"\n" +
				"book,  A book has many pages with words and pictures. ,I read a book before bed.\n" +
				",,\n",
			wantNames: []string{"book"},
			wantEntry: Entry{
				ObjectName:      "book",
				Description:     "A book has many pages with words and pictures.",
				ExampleSentence: "I read a book before bed.",
			},
		},
		{
			name:     "missing column in header",
			contents: "object_name,description\nbook,A book has pages.\n",
			wantErr:  ErrMissingColumns,
		},
		{
			name:      "header with a byte order mark",
			contents:  "\ufeffobject_name,description,example_sentence\nbook,A book has pages.,I read a book.\n",
			wantNames: []string{"book"},
			wantEntry: Entry{
				ObjectName:      "book",
				Description:     "A book has pages.",
				ExampleSentence: "I read a book.",
			},
		},
		{
			name:      "short row leaves the sentence blank",
			contents:  "object_name,description,example_sentence\nbook,A book has pages.\n",
			wantNames: []string{"book"},
			wantEntry: Entry{ObjectName: "book", Description: "A book has pages."},
		},
		{
			name:     "row without a name",
			contents: "object_name,description,example_sentence\n,A book has pages.,I read.\n",
			wantErr:  ErrMissingColumns,
		},
		{
			name:     "empty file",
			contents: "",
			wantErr:  ErrMissingColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := Load(writeCSV(t, tt.contents), "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, base.Names())

			got, ok := base.Lookup("BOOK")
			assert.True(t, ok)
			assert.Equal(t, tt.wantEntry, got)

			_, ok = base.Lookup("chair")
			assert.False(t, ok)
		})
	}
}

func TestLoad_XLSX(t *testing.T) {
	rows := [][]interface{}{
		{"Object", "Description", "Example Sentence"},
		{"eraser", "An eraser removes pencil marks.", "I use an eraser to fix my mistake."},
		{"pencil case", "A pencil case holds pencils and pens.", "My pencil case is blue."},
	}

	t.Run("first sheet by default", func(t *testing.T) {
		base, err := Load(writeXLSX(t, "Sheet1", rows), "")
		require.NoError(t, err)
		assert.Equal(t, 2, base.Len())

		got, ok := base.Lookup("Pencil Case")
		require.True(t, ok)
		assert.Equal(t, "My pencil case is blue.", got.ExampleSentence)
	})

	t.Run("named sheet", func(t *testing.T) {
		base, err := Load(writeXLSX(t, "Benda", rows), "Benda")
		require.NoError(t, err)
		assert.Equal(t, []string{"eraser", "pencil case"}, base.Names())
	})

	t.Run("blank trailing cell", func(t *testing.T) {
		path := writeXLSX(t, "Sheet1", [][]interface{}{
			{"object_name", "description", "example_sentence"},
			{"book", "A book has pages.", "I read a book."},
			{"lamp", "A lamp gives light.", ""},
		})
		base, err := Load(path, "")
		require.NoError(t, err)
		assert.Equal(t, 2, base.Len())

		got, ok := base.Lookup("lamp")
		require.True(t, ok)
		assert.Equal(t, Entry{ObjectName: "lamp", Description: "A lamp gives light."}, got)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := Load(writeXLSX(t, "Sheet1", rows), "Missing")
		assert.Error(t, err)
	})
}

func TestLoad_Unsupported(t *testing.T) {
	_, err := Load("objects.json", "")
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	valid := writeCSV(t, "object_name,description,example_sentence\nbook,A book has pages.,I read a book.\n")
	broken := writeCSV(t, "object_name\nbook\n")

	tests := []struct {
		name    string
		cfg     config.KnowledgeBaseConfig
		wantLen int
		wantErr bool
	}{
		{name: "no path gives an empty base", cfg: config.KnowledgeBaseConfig{}, wantLen: 0},
		{name: "loads entries", cfg: config.KnowledgeBaseConfig{Path: valid}, wantLen: 1},
		{name: "degrades to empty", cfg: config.KnowledgeBaseConfig{Path: broken}, wantLen: 0},
		{name: "strict fails", cfg: config.KnowledgeBaseConfig{Path: broken, Strict: true}, wantErr: true},
		{name: "strict fails on missing file", cfg: config.KnowledgeBaseConfig{Path: "missing.csv", Strict: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := FromConfig(tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, base.Len())
		})
	}
}

func TestBase_NilSafe(t *testing.T) {
	var base *Base
	_, ok := base.Lookup("book")
	assert.False(t, ok)
	assert.Equal(t, 0, base.Len())
	assert.Nil(t, base.Names())
}
