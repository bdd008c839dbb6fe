package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		filePath string
		want     string
		wantErr  bool
	}{
		{"default", "", filepath.Join(dir, DefaultReportName), false},
		{"html", filepath.Join(dir, "out.html"), filepath.Join(dir, "out.html"), false},
		{"htm", filepath.Join(dir, "out.htm"), filepath.Join(dir, "out.htm"), false},
		{"html upper case", filepath.Join(dir, "report.HTML"), "", true},
		{"htm upper case", filepath.Join(dir, "out.HTM"), "", true},
		{"json", filepath.Join(dir, "out.json"), "", true},
		{"no extension", filepath.Join(dir, "report"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(dir, tt.filePath)
			if tt.wantErr {
				var pathErr *InvalidPathError
				require.ErrorAs(t, err, &pathErr)
				assert.Equal(t, tt.filePath, pathErr.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePath_RelativeBecomesAbsolute(t *testing.T) {
	got, err := ResolvePath("edr_target", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, DefaultReportName, filepath.Base(got))
}

func TestNewSerializer_MissingTemplate(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.html")

	_, err := NewSerializer(t.TempDir(), missing)

	var tmplErr *TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, missing, tmplErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNewSerializer_EmptyTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewSerializer(t.TempDir(), path)

	var tmplErr *TemplateError
	assert.ErrorAs(t, err, &tmplErr)
}

func TestSerializerWrite_HTMLAndJSONMatch(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<html><body></body></html>\n"), 0o644))

	s, err := NewSerializer(dir, tmpl)
	require.NoError(t, err)

	payload := map[string]any{
		"models": map[string]any{"model.a": map[string]any{"description": "</script><b>x</b>"}},
		"count":  3,
	}
	htmlPath := filepath.Join(dir, "nested", "report.html")
	jsonPath, err := s.Write(htmlPath, payload)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, OutputJSONName), jsonPath)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	page := string(html)
	require.True(t, strings.HasPrefix(page, "<html><body></body></html>\n<script>"))

	const marker = "var elementaryData = "
	start := strings.Index(page, marker)
	require.NotEqual(t, -1, start)
	embedded := page[start+len(marker):]
	embedded = embedded[:strings.Index(embedded, "\n</script>")]

	assert.Equal(t, string(data), embedded, "report and JSON file carry the same bytes")
	assert.Equal(t, 1, strings.Count(page, "</script>"), "payload cannot close the script block")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 3, decoded["count"])
}

func TestSerializerWrite_BundledTemplate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSerializer(dir, "")
	require.NoError(t, err)

	htmlPath := filepath.Join(dir, DefaultReportName)
	_, err = s.Write(htmlPath, map[string]int{"a": 1})
	require.NoError(t, err)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<!DOCTYPE html>")
	assert.Contains(t, string(html), `var elementaryData = {"a":1}`)
}
