package export

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/TobiSchelling/storedash/internal/table"
)

// MediaTypeCSV is the declared media type of CSV artifacts.
const MediaTypeCSV = "text/csv"

// Artifact is a named downloadable file.
type Artifact struct {
	Filename  string
	MediaType string
	Data      []byte
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CSV encodes a table as a CSV artifact.
func CSV(filename string, t table.Table) (Artifact, error) {
	data, err := table.ToPortableText(t)
	if err != nil {
		return Artifact{}, fmt.Errorf("encoding %s: %w", filename, err)
	}
	return Artifact{Filename: SafeName(filename), MediaType: MediaTypeCSV, Data: data}, nil
}

// SafeName replaces characters that do not belong in a download filename.
func SafeName(name string) string {
	name = unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	if name == "" || name == "." || name == "_" {
		return "data.csv"
	}
	return name
}

// DataURI embeds the artifact in a data: link for inline downloads.
func (a Artifact) DataURI() string {
	return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ContentDisposition is the header value that makes browsers save the file.
func (a Artifact) ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", a.Filename)
}

// WriteFile writes the artifact into dir and returns its path.
func (a Artifact) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", a.Filename, err)
	}
	return path, nil
}
