// Package address turns free-text street addresses into structured cache keys.
package address

import (
	"regexp"
	"strings"

	"clustering-api/internal/models"

	"github.com/rotisserie/eris"
)

// ErrNotParseable is returned when an address matches none of the known patterns.
var ErrNotParseable = eris.New("address: not parseable")

const (
	numberPattern   = `(\d+[A-Z]?)`
	cardinalPattern = `([NSEW])\.?`
	streetPattern   = `([A-Z0-9][A-Z0-9' .\-]*?)`
	suffixPattern   = `(AVE|ST|RD|BLVD|DR|LN|CT|PL|WAY|CIR|PKWY)\.?`
)

// Patterns are tried from strictest to loosest; the first match wins.
var (
	reFull       = regexp.MustCompile(`^` + numberPattern + ` ` + cardinalPattern + ` ` + streetPattern + ` ` + suffixPattern + `$`)
	reNoCardinal = regexp.MustCompile(`^` + numberPattern + ` ` + streetPattern + ` ` + suffixPattern + `$`)
	reNoSuffix   = regexp.MustCompile(`^` + numberPattern + ` ` + cardinalPattern + ` ` + streetPattern + `$`)
	reBare       = regexp.MustCompile(`^` + numberPattern + ` ` + streetPattern + `$`)
)

// Normalize parses a raw address such as "5303 S Washtenaw Ave, Chicago, Illinois"
// into its structured form. Text after the first comma (city, state) is ignored.
func Normalize(raw string) (models.StructuredAddress, error) {
	line := raw
	if i := strings.Index(line, ","); i >= 0 {
		line = line[:i]
	}
	line = strings.ToUpper(strings.Join(strings.Fields(line), " "))
	if line == "" {
		return models.StructuredAddress{}, ErrNotParseable
	}

	if m := reFull.FindStringSubmatch(line); m != nil {
		return build(m[1], m[2], m[3], m[4]), nil
	}
	if m := reNoCardinal.FindStringSubmatch(line); m != nil {
		return build(m[1], "", m[2], m[3]), nil
	}
	if m := reNoSuffix.FindStringSubmatch(line); m != nil {
		return build(m[1], m[2], m[3], ""), nil
	}
	if m := reBare.FindStringSubmatch(line); m != nil {
		return build(m[1], "", m[2], ""), nil
	}

	return models.StructuredAddress{}, eris.Wrapf(ErrNotParseable, "%q", raw)
}

func build(number, cardinal, street, suffix string) models.StructuredAddress {
	return models.StructuredAddress{
		Number:   number,
		Cardinal: models.Cardinal(cardinal),
		Street:   strings.TrimSpace(street),
		Suffix:   suffix,
	}
}
