package repository

import "strings"

// isDuplicateErr reports whether err is a uniqueness violation. MySQL
// reports error 1062; sqlite (used in tests) reports "UNIQUE
// constraint failed". Matching on the message keeps the repositories
// free of driver imports.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
