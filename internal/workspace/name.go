package workspace

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultDocumentName is the name used until the user renames the document.
const DefaultDocumentName = "converted-images.pdf"

// documentExt is appended to names that lack it.
const documentExt = ".pdf"

// ErrInvalidName is returned for document names that are empty after trimming.
var ErrInvalidName = errors.New("PDF name cannot be empty")

// NormalizeDocumentName trims name, rejects empty names and appends the .pdf
// extension when it is missing. Path separators are replaced so the name is a
// single file name.
func NormalizeDocumentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '-'
		}
		return r
	}, name)

	if strings.TrimSpace(strings.TrimSuffix(strings.ToLower(name), documentExt)) == "" {
		return "", ErrInvalidName
	}
	if !strings.EqualFold(filepath.Ext(name), documentExt) {
		name += documentExt
	}
	return name, nil
}

// BaseName returns the document name without the .pdf extension, as shown in
// the rename dialog.
func BaseName(name string) string {
	if strings.EqualFold(filepath.Ext(name), documentExt) {
		return name[:len(name)-len(documentExt)]
	}
	return name
}

// ASCIIName returns an ASCII-only version of name for headers that cannot
// carry UTF-8 (e.g., "Žluťoučký kůň.pdf" -> "Zlutoucky kun.pdf").
func ASCIIName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, name)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || r == '"' {
			return '_'
		}
		return r
	}, result)
}
