// Package monitor defines the observability records a report is assembled
// from, the store interface that fetches them, and the pure aggregations
// (totals, sidebars, filter facets) computed over them.
package monitor

import (
	"path"
	"strings"
)

// ArtifactKind tags the variant of a node in the report node map.
type ArtifactKind string

const (
	KindModel    ArtifactKind = "model"
	KindSource   ArtifactKind = "source"
	KindExposure ArtifactKind = "exposure"
)

// Artifact is a model, source or exposure node.
type Artifact interface {
	ID() string
	Kind() ArtifactKind
	Common() *ArtifactBase
}

// ArtifactBase holds the fields shared by every node kind.
type ArtifactBase struct {
	UniqueID           string   `json:"unique_id"`
	Name               string   `json:"name"`
	DatabaseName       string   `json:"database_name,omitempty"`
	SchemaName         string   `json:"schema_name,omitempty"`
	TableName          string   `json:"table_name,omitempty"`
	Owners             []string `json:"owners"`
	Tags               []string `json:"tags"`
	PackageName        string   `json:"package_name"`
	Description        string   `json:"description,omitempty"`
	OriginalPath       string   `json:"original_path"`
	NormalizedFullPath string   `json:"normalized_full_path"`
	FQN                string   `json:"fqn"`
}

// ID returns the node's unique identifier.
func (a *ArtifactBase) ID() string { return a.UniqueID }

// Common returns the shared fields.
func (a *ArtifactBase) Common() *ArtifactBase { return a }

// Normalize fills the derived path and fully-qualified name fields and
// replaces nil owner/tag lists with empty ones.
func (a *ArtifactBase) Normalize() {
	if a.Owners == nil {
		a.Owners = []string{}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}

	original := strings.TrimPrefix(filepathToSlash(a.OriginalPath), "/")
	if a.PackageName != "" && original != "" {
		a.NormalizedFullPath = path.Join(a.PackageName, original)
	} else {
		a.NormalizedFullPath = original
	}

	table := a.TableName
	if table == "" {
		table = a.Name
	}
	var parts []string
	for _, p := range []string{a.DatabaseName, a.SchemaName, table} {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	a.FQN = strings.Join(parts, ".")
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Model is a transformation model node.
type Model struct {
	ArtifactBase
	Materialization string   `json:"materialization"`
	DependsOn       []string `json:"depends_on_nodes"`
}

// Kind returns KindModel.
func (m *Model) Kind() ArtifactKind { return KindModel }

// Source is a raw source table node.
type Source struct {
	ArtifactBase
	SourceName string `json:"source_name"`
}

// Kind returns KindSource.
func (s *Source) Kind() ArtifactKind { return KindSource }

// Exposure is a downstream consumer (dashboard, ML model, app) node.
type Exposure struct {
	ArtifactBase
	Label      string   `json:"label,omitempty"`
	Type       string   `json:"type"`
	Maturity   string   `json:"maturity,omitempty"`
	URL        string   `json:"url,omitempty"`
	OwnerEmail string   `json:"owner_email,omitempty"`
	DependsOn  []string `json:"depends_on_nodes"`
}

// Kind returns KindExposure.
func (e *Exposure) Kind() ArtifactKind { return KindExposure }
