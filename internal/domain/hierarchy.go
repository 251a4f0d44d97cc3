package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Segments splits a dotted hierarchy number into its positive integer parts.
func Segments(h string) ([]int, error) {
	if h == "" {
		return nil, fmt.Errorf("empty hierarchy number")
	}
	parts := strings.Split(h, ".")
	segs := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || p[0] == '0' || p[0] == '+' {
			return nil, fmt.Errorf("invalid hierarchy number %q", h)
		}
		segs[i] = n
	}
	return segs, nil
}

// ValidHierarchy reports whether h is a well-formed hierarchy number.
func ValidHierarchy(h string) bool {
	_, err := Segments(h)
	return err == nil
}

// JoinHierarchy renders segments as a dotted hierarchy number.
func JoinHierarchy(segs []int) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ".")
}

// Depth is the number of dot-separated segments; 0 for an empty string.
func Depth(h string) int {
	if h == "" {
		return 0
	}
	return strings.Count(h, ".") + 1
}

// ParentHierarchy returns the hierarchy number of h's parent, or "" for a
// top-level number.
func ParentHierarchy(h string) string {
	i := strings.LastIndex(h, ".")
	if i < 0 {
		return ""
	}
	return h[:i]
}

// IsAncestor reports whether ancestor is a strict outline ancestor of h.
func IsAncestor(ancestor, h string) bool {
	return ancestor != "" && strings.HasPrefix(h, ancestor+".")
}

// IsChildOf reports whether h is a direct child of parent.
func IsChildOf(parent, h string) bool {
	return IsAncestor(parent, h) && Depth(h) == Depth(parent)+1
}

// CompareHierarchy orders hierarchy numbers in outline order ("2" < "2.1" <
// "2.10" < "10"). Malformed numbers sort after well-formed ones, by text.
func CompareHierarchy(a, b string) int {
	sa, errA := Segments(a)
	sb, errB := Segments(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if sa[i] != sb[i] {
			if sa[i] < sb[i] {
				return -1
			}
			return 1
		}
	}
	return len(sa) - len(sb)
}
