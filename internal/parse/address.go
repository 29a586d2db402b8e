// Package parse holds the pure text-normalization functions of the
// pipeline: free-form address decomposition and date canonicalization.
// Both are total functions over arbitrary input.
package parse

import (
	"regexp"
	"strings"

	"mnsos/pkg/contracts/domain"
)

// streetTypes are the recognized street-type suffixes and abbreviations.
var streetTypes = map[string]bool{
	"street": true, "st": true, "str": true,
	"avenue": true, "ave": true, "av": true,
	"road": true, "rd": true,
	"drive": true, "dr": true,
	"lane": true, "ln": true,
	"court": true, "ct": true,
	"circle": true, "cir": true,
	"boulevard": true, "blvd": true,
	"way": true,
	"place": true, "pl": true,
	"trail": true, "trl": true, "tr": true,
	"parkway": true, "pkwy": true,
	"highway": true, "hwy": true,
	"terrace": true, "ter": true,
	"path": true,
	"loop": true,
	"square": true, "sq": true,
	"crossing": true, "xing": true,
}

// directions are the recognized directional suffixes.
var directions = map[string]bool{
	"n": true, "s": true, "e": true, "w": true,
	"ne": true, "nw": true, "se": true, "sw": true,
	"north": true, "south": true, "east": true, "west": true,
}

var (
	unitLineRe        = regexp.MustCompile(`(?i)^(STE|SUITE|APT|APARTMENT|UNIT|#|FL|FLOOR|RM|ROOM|BLDG|BUILDING)\s*\.?\s*\d*`)
	cityStateZipRe    = regexp.MustCompile(`(?i)^.+,\s*[A-Z]{2}\s+\d{5}`)
	cityStateOnlyRe   = regexp.MustCompile(`(?i)^.+,\s*[A-Z]{2}\s*$`)
	streetNumberRe    = regexp.MustCompile(`^(\d+[-\d]*)\s+(.+)$`)
	cityStateZipCapRe = regexp.MustCompile(`(?i)^(.+?),\s*([A-Z]{2})\s+([\d\-–]+)$`)
	cityStateCapRe    = regexp.MustCompile(`(?i)^(.+?),\s*([A-Z]{2})$`)
)

// ParseAddress decomposes free-form address text into its components.
// Input may be multi-line or a single comma-joined line. The function
// never fails: unparseable parts are left as empty strings. Cities with
// embedded commas are not supported; only the first comma splits street
// from the remainder.
func ParseAddress(addressStr string) domain.Address {
	var result domain.Address

	addressStr = strings.TrimSpace(addressStr)
	if addressStr == "" {
		return result
	}

	var lines []string
	for _, line := range strings.Split(addressStr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch strings.ToUpper(line) {
		case "USA", "US", "UNITED STATES":
			continue
		}
		lines = append(lines, line)
	}

	// Single-line comma format: "123 Main St, Minneapolis, MN 55401".
	// Split on the first comma; the remainder keeps any further commas.
	if len(lines) == 1 && strings.Contains(lines[0], ",") {
		parts := strings.SplitN(lines[0], ",", 2)
		if len(parts) == 2 {
			lines = []string{
				strings.TrimSpace(parts[0]),
				strings.TrimSpace(parts[1]),
			}
		}
	}

	var streetLine, unitLine, cityStateZipLine string
	for _, line := range lines {
		switch {
		case cityStateZipRe.MatchString(line):
			cityStateZipLine = line
		case cityStateOnlyRe.MatchString(line):
			cityStateZipLine = line
		case unitLineRe.MatchString(line):
			if unitLine == "" {
				unitLine = line
			}
		case streetLine == "":
			streetLine = line
		}
	}

	if streetLine != "" {
		remainder := streetLine
		if m := streetNumberRe.FindStringSubmatch(streetLine); m != nil {
			result.StreetNumber = m[1]
			remainder = m[2]
		}

		words := strings.Fields(remainder)

		if len(words) > 0 && directions[strings.ToLower(words[len(words)-1])] {
			result.StreetDirection = strings.ToUpper(words[len(words)-1])
			words = words[:len(words)-1]
		}
		if len(words) > 0 && streetTypes[strings.ToLower(words[len(words)-1])] {
			result.StreetType = words[len(words)-1]
			words = words[:len(words)-1]
		}
		if len(words) > 0 {
			result.StreetName = strings.Join(words, " ")
		}
	}

	result.Unit = unitLine

	if cityStateZipLine != "" {
		if m := cityStateZipCapRe.FindStringSubmatch(cityStateZipLine); m != nil {
			result.City = strings.TrimSpace(m[1])
			result.State = strings.ToUpper(m[2])
			result.Zip = strings.ReplaceAll(m[3], "–", "-")
		} else if m := cityStateCapRe.FindStringSubmatch(cityStateZipLine); m != nil {
			result.City = strings.TrimSpace(m[1])
			result.State = strings.ToUpper(m[2])
		} else {
			result.City = cityStateZipLine
		}
	}

	return result
}
