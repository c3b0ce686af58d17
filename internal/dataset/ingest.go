package dataset

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/charmap"

	"github.com/TobiSchelling/storedash/internal/table"
)

//go:embed superstore.csv
var defaultCSV []byte

// DefaultEncoding is the legacy text encoding retail exports are written in.
const DefaultEncoding = "iso-8859-1"

// Source is a raw comma-separated dataset and the encoding it is written in.
type Source struct {
	Name     string
	Data     []byte
	Encoding string
}

// Default returns the bundled sample dataset.
func Default() Source {
	return Source{Name: "superstore.csv", Data: defaultCSV, Encoding: DefaultEncoding}
}

// LoadFile reads a dataset file from disk.
func LoadFile(path, encoding string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("reading dataset: %w", err)
	}
	return Source{Name: filepath.Base(path), Data: data, Encoding: encoding}, nil
}

// Key identifies the source content. Two sources with the same bytes and
// encoding enrich to the same dataset.
func (s Source) Key() string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(s.Encoding)))
	h.Write([]byte{0})
	h.Write(s.Data)
	return hex.EncodeToString(h.Sum(nil))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table decodes the source into a raw string table. Data starting with a
// UTF-8 byte order mark is read as UTF-8 whatever the configured encoding.
func (s Source) Table() (table.Table, error) {
	data, enc := s.Data, s.Encoding
	if bytes.HasPrefix(data, utf8BOM) {
		data, enc = data[len(utf8BOM):], "utf-8"
	}
	text, err := Decode(data, enc)
	if err != nil {
		return table.Table{}, err
	}
	return table.Read(bytes.NewReader(text))
}

// Load decodes and enriches the source.
func Load(s Source) (*Dataset, error) {
	raw, err := s.Table()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	ds, err := Enrich(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return ds, nil
}

// Decode converts data in the named encoding to UTF-8. "auto" guesses the
// encoding from the content.
func Decode(data []byte, encoding string) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(encoding))
	if enc == "auto" {
		enc = detect(data)
	}
	switch enc {
	case "", "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Bytes(data)
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Bytes(data)
	case "utf-8", "utf8":
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func detect(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil {
		return DefaultEncoding
	}
	switch strings.ToLower(res.Charset) {
	case "utf-8":
		return "utf-8"
	case "windows-1252":
		return "windows-1252"
	default:
		return DefaultEncoding
	}
}
