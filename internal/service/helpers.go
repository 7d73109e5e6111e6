package service

import (
	"strings"

	"github.com/clab/student-portal-api/internal/repository"
)

func isUnique(err error) bool {
	return repository.IsUniqueViolation(err)
}

// slugify lowercases a title and collapses every run of non-alphanumeric
// characters into single hyphens: "Class Ten" becomes "class-ten".
func slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
