// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// disallowed matches anything that isn't a lowercase ASCII letter,
	// digit, hyphen or space separator. \s alone is ASCII only.
	disallowed = regexp.MustCompile(`[^a-z0-9\p{Z}\s-]`)
	// whitespaceRun collapses whitespace runs, Unicode ones included, into
	// one separator.
	whitespaceRun = regexp.MustCompile(`[\p{Z}\s]+`)

	// undecomposable maps base letters that NFD leaves intact.
	undecomposable = strings.NewReplacer("đ", "d", "Đ", "d")
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Điện thoại di động" → "dien-thoai-di-dong"
func Generate(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = stripMarks(result)
	result = undecomposable.Replace(result)
	result = disallowed.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)
	result = whitespaceRun.ReplaceAllString(result, "-")
	return result
}

// stripMarks decomposes s and drops combining diacritical marks.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
