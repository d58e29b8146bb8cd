package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// document is decoded HTML together with the encoding it came in
type document struct {
	content  string
	encoding encoding.Encoding
	name     string // canonical WHATWG name
}

// decodeDocument converts raw input to UTF-8. With an empty label the encoding is
// sniffed from BOM and <meta> declarations, defaulting to windows-1252 the way browsers do.
func decodeDocument(data []byte, label string) (*document, error) {
	var name string

	if len(label) > 0 {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unknown character set '%s': %w", label, err)
		}
		if name, err = htmlindex.Name(enc); err != nil {
			return nil, fmt.Errorf("unable to name character set '%s': %w", label, err)
		}
	} else {
		// the returned encoding may be a private wrapper, only its canonical name is usable
		_, name, _ = charset.DetermineEncoding(data, "text/html")
	}

	if name == "utf-8" {
		return &document{content: string(data), name: name}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown character set '%s': %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode input as %s: %w", name, err)
	}
	return &document{content: string(decoded), encoding: enc, name: name}, nil
}

// encode converts UTF-8 text back to the document's encoding. Characters the encoding
// cannot represent become HTML character references.
func (d *document) encode(text string) ([]byte, error) {
	if d.name == "utf-8" {
		return []byte(text), nil
	}
	out, err := encoding.HTMLEscapeUnsupported(d.encoding.NewEncoder()).String(text)
	if err != nil {
		return nil, fmt.Errorf("unable to encode output as %s: %w", d.name, err)
	}
	return []byte(out), nil
}

// readSource reads a file, or STDIN for an empty or "-" name
func readSource(name string, stdin io.Reader) ([]byte, error) {
	if len(name) == 0 || name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read STDIN: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file '%s': %w", name, err)
	}
	return data, nil
}

// writeDestination writes data to a file, refusing to replace an existing one unless
// overwrite is set. Parent directories are created as needed.
func writeDestination(name string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("destination file '%s' already exists", name)
		}
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write destination file '%s': %w", name, err)
	}
	return nil
}

// isHTMLFile checks the file extension
func isHTMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// findHTMLFiles finds all HTML files under a directory, symbolic links are not followed
func findHTMLFiles(dir string) ([]string, error) {
	var htmlFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && isHTMLFile(path) {
			htmlFiles = append(htmlFiles, path)
		}
		return nil
	})

	return htmlFiles, err
}
