package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// UniqueSlug appends a timestamp suffix for collision-prone titles
// (blog posts, property listings with identical names).
func UniqueSlug(s string) string {
	base := Slugify(s)
	if base == "" {
		base = "untitled"
	}
	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
