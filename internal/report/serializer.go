package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/natefinch/atomic"
)

const (
	// DefaultReportName is the report file name used when no path is given.
	DefaultReportName = "elementary_report.html"
	// OutputJSONName is the raw payload written next to the report.
	OutputJSONName = "elementary_output.json"
)

//go:embed templates/index.html
var bundledTemplate []byte

var dataScript = template.Must(template.New("data").Parse("<script>\n    var elementaryData = {{.}}\n</script>\n"))

// InvalidPathError is returned when an explicit report path is not an HTML file.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("report file path must end with .html or .htm: %s", e.Path)
}

// TemplateError is returned when the report template cannot be loaded.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("failed to load report template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ResolvePath returns the absolute report path: filePath when set, which
// must end in a lower-case .html or .htm extension, or the default name in
// targetDir.
func ResolvePath(targetDir, filePath string) (string, error) {
	p := filePath
	if p == "" {
		p = filepath.Join(targetDir, DefaultReportName)
	} else {
		if !strings.HasSuffix(p, ".html") && !strings.HasSuffix(p, ".htm") {
			return "", &InvalidPathError{Path: filePath}
		}
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve report path: %w", err)
	}
	return abs, nil
}

// Serializer writes a payload as an HTML report and a JSON document.
type Serializer struct {
	targetDir string
	page      []byte
}

// NewSerializer loads the page template from templatePath, or the bundled
// template when templatePath is empty.
func NewSerializer(targetDir, templatePath string) (*Serializer, error) {
	page := bundledTemplate
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, &TemplateError{Path: templatePath, Err: err}
		}
		page = data
	}
	if len(page) == 0 {
		return nil, &TemplateError{Path: templatePath, Err: fmt.Errorf("template is empty")}
	}
	return &Serializer{targetDir: targetDir, page: page}, nil
}

// Write serializes payload once, writes the report to htmlPath and the same
// JSON to OutputJSONName in the target directory. It returns the JSON path.
func (s *Serializer) Write(htmlPath string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode report payload: %w", err)
	}

	var page bytes.Buffer
	page.Write(s.page)
	if err := dataScript.Execute(&page, string(data)); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := atomic.WriteFile(htmlPath, &page); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.MkdirAll(s.targetDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create target directory: %w", err)
	}
	jsonPath := filepath.Join(s.targetDir, OutputJSONName)
	if err := atomic.WriteFile(jsonPath, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write report data: %w", err)
	}
	return jsonPath, nil
}
