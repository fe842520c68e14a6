package model

import (
	"fmt"
	"regexp"
)

// A file id is a path ("/...", may span lines), an opaque remote id ("id:...")
// or a namespace-relative reference ("ns:<digits>" optionally followed by "/...").
var fileIDPattern = regexp.MustCompile(`^(?:/(?s:.*)|id:.*|ns:[0-9]+(/.*)?)$`)

// ValidateFileID checks id against the accepted identifier grammar.
func ValidateFileID(id string) error {
	if !fileIDPattern.MatchString(id) {
		return fmt.Errorf("%w: malformed file id %q", ErrInvalidInput, id)
	}
	return nil
}
