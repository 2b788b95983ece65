package models

import "strconv"

// StringPtr returns nil for an empty string, a pointer otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
