package services

import (
	"path"
	"strings"
	"unicode"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driving"
)

// maxExtensionLength bounds what counts as a file extension when
// normalising ids, so version-like suffixes such as "v1.2" are kept.
const maxExtensionLength = 5

// NameLookup is optionally implemented by catalogs that can match a cited
// file name against entry display names.
type NameLookup interface {
	LookupByName(name string) (domain.DocumentEntry, bool)
}

// NormaliseDocumentID turns a cited source or chunk prefix into a catalog id:
// surrounding whitespace, directories and a trailing file extension are removed.
func NormaliseDocumentID(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}
	t = strings.ReplaceAll(t, `\`, "/")
	t = strings.TrimRight(t, "/")
	if t == "" {
		return ""
	}
	t = path.Base(t)
	if ext := path.Ext(t); isFileExtension(ext) && len(ext) < len(t) {
		t = strings.TrimSuffix(t, ext)
	}
	return t
}

func isFileExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > maxExtensionLength+1 {
		return false
	}
	for _, r := range ext[1:] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ResolveTarget maps the first citation of an answer to a catalog document
// and page. Only the first citation is considered. The page defaults to 1
// when the citation carries none.
func ResolveTarget(parsed domain.ParsedAnswer, catalog driving.DocumentLookup) (domain.NavigationTarget, bool) {
	first, ok := parsed.First()
	if !ok || catalog == nil {
		return domain.NavigationTarget{}, false
	}

	entry, ok := lookupCited(first.DocumentToken(), catalog)
	if !ok {
		return domain.NavigationTarget{}, false
	}

	page := first.Page
	if page < 1 {
		page = 1
	}
	return domain.NavigationTarget{DocumentID: entry.ID, Page: page}, true
}

// SourceName returns the display name of the document a citation points
// at, or its raw document token when the catalog does not know it.
func SourceName(c domain.Citation, catalog driving.DocumentLookup) string {
	if catalog != nil {
		if entry, ok := lookupCited(c.DocumentToken(), catalog); ok && entry.DisplayName != "" {
			return entry.DisplayName
		}
	}
	return c.DocumentToken()
}

func lookupCited(token string, catalog driving.DocumentLookup) (domain.DocumentEntry, bool) {
	id := NormaliseDocumentID(token)
	if id == "" {
		return domain.DocumentEntry{}, false
	}
	if entry, ok := catalog.Lookup(id); ok {
		return entry, true
	}
	if names, ok := catalog.(NameLookup); ok {
		return names.LookupByName(id)
	}
	return domain.DocumentEntry{}, false
}
