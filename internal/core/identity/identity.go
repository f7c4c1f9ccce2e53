// Package identity derives storage relation names from document content.
//
// A table identity is the first recognized text block with whitespace runs collapsed to "_".
// Only ASCII identifiers that Postgres accepts without quoting rules getting involved are allowed;
// everything else is rejected instead of being silently rewritten.
package identity

import (
	"errors"
	"regexp"
	"strings"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

// MaxLength is Postgres' NAMEDATALEN-1; longer identifiers are truncated by the server.
const MaxLength = 63

const op = "resolve table identity"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	allowed       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// relations owned by the bootstrap schema
	reserved = map[string]struct{}{
		"inventory_tables": {},
		"inventra_meta":    {},
	}

	ErrNoTextBlock = errors.New("document has no recognized text block")
)

// Resolve turns a text block into a table identity.
func Resolve(textBlock string) (string, error) {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(textBlock), "_")
	if err := Validate(name); err != nil {
		return "", err
	}
	return name, nil
}

// FromDocument resolves the identity from the document's first text block.
func FromDocument(doc *models.RecognizedDocument) (string, error) {
	if doc == nil || len(doc.TextBlocks) == 0 {
		return "", apperr.New(apperr.KindIdentityInvalid, op, ErrNoTextBlock)
	}
	return Resolve(doc.TextBlocks[0])
}

// Validate checks an already-derived name, e.g. a table name posted back by a form.
func Validate(name string) error {
	switch {
	case name == "":
		return apperr.Errorf(apperr.KindIdentityInvalid, op, "table name is empty")
	case len(name) > MaxLength:
		return apperr.Errorf(apperr.KindIdentityInvalid, op, "table name %q longer than %d bytes", name, MaxLength)
	case !allowed.MatchString(name):
		return apperr.Errorf(apperr.KindIdentityInvalid, op, "table name %q contains characters outside [A-Za-z0-9_]", name)
	case strings.HasPrefix(strings.ToLower(name), "pg_"):
		return apperr.Errorf(apperr.KindIdentityInvalid, op, "table name %q uses the reserved pg_ prefix", name)
	}
	if _, ok := reserved[strings.ToLower(name)]; ok {
		return apperr.Errorf(apperr.KindIdentityInvalid, op, "table name %q is reserved", name)
	}
	return nil
}
