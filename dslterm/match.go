package dslterm

import (
	"fmt"
	"regexp"

	"github.com/screenager/constrain/kinderr"
)

// Matches reports whether s is a full match (fully anchored) for t's
// lowered regex.
func Matches(t *Term, s string) (bool, error) {
	pattern, err := ToRegex(t)
	if err != nil {
		return false, err
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false, kinderr.Wrap(kinderr.IndexBuildError, pattern, "term lowers to an unsupported regex", err)
	}
	return re.MatchString(s), nil
}

// Validate returns nil if s matches t, otherwise a PatternMismatch error.
func Validate(t *Term, s string) error {
	ok, err := Matches(t, s)
	if err != nil {
		return err
	}
	if !ok {
		pattern, _ := ToRegex(t)
		return kinderr.New(kinderr.PatternMismatch, s, fmt.Sprintf("does not match %q", pattern))
	}
	return nil
}
