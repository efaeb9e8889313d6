package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	csvData := `Company,Website,City,State,Phone_Number,Industry
Acme Plumbing,acmeplumbing.com,Austin,TX,(512) 555-0134,plumber
Sunrise Nursing Home,,Topeka,KS,785-555-0199,nursing home
`
	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Acme Plumbing", rows[0].Name)
	assert.Equal(t, "acmeplumbing.com", rows[0].Domain)
	assert.Equal(t, "Austin", rows[0].City)
	assert.Equal(t, "TX", rows[0].State)
	assert.Equal(t, "(512) 555-0134", rows[0].Phone)
	assert.Equal(t, "plumber", rows[0].Category)
	assert.NotEmpty(t, rows[0].ID, "rows without an id column get one assigned")

	assert.Equal(t, "Sunrise Nursing Home", rows[1].Name)
	assert.Empty(t, rows[1].Domain)
}

func TestReadCSVKeepsProvidedID(t *testing.T) {
	csvData := "id,name\nrow-42,Acme Plumbing\n"
	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "row-42", rows[0].ID)
}

func TestReadCSVSkipsNamelessRows(t *testing.T) {
	csvData := `name,city
Acme Plumbing,Austin
,Dallas
  ,Houston
Beta Roofing,Waco
`
	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Plumbing", rows[0].Name)
	assert.Equal(t, "Beta Roofing", rows[1].Name)
}

func TestReadCSVRequiresNameColumn(t *testing.T) {
	csvData := "city,state\nAustin,TX\n"
	_, err := ReadCSV(strings.NewReader(csvData))
	assert.ErrorContains(t, err, "no name column")
}

func TestReadCSVIgnoresUnknownColumns(t *testing.T) {
	csvData := "name,revenue,employees\nAcme Plumbing,1000000,12\n"
	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme Plumbing", rows[0].Name)
}

func TestReadCSVShortRows(t *testing.T) {
	csvData := "name,city,notes\nAcme Plumbing,Austin,family owned\n"
	rows, err := ReadCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "family owned", rows[0].Context)
}

func TestReadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "batch.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("name\nAcme Plumbing\n"), 0o644))

	rows, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadFile(filepath.Join(dir, "batch.txt"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestMapHeaderAliases(t *testing.T) {
	cols, err := mapHeader([]string{" Company_Name ", "URL", "Notes", "whatever"})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "name", 1: "domain", 2: "context"}, cols)
}
