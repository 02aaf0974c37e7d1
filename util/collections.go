// Package util provides small helper functions shared across the codebase.
package util

import (
	"slices"
	"sort"
)

// ListContainsElement returns true if the given list contains the given element.
func ListContainsElement[S ~[]E, E comparable](list S, element E) bool {
	return slices.Contains(list, element)
}

// RemoveElementFromList returns a copy of the given list with all instances of the given element removed.
func RemoveElementFromList[S ~[]E, E comparable](list S, element E) S {
	out := make(S, 0, len(list))

	for _, item := range list {
		if item != element {
			out = append(out, item)
		}
	}

	return out
}

// RemoveDuplicatesFromList returns a copy of the given list with all duplicates removed, keeping the first
// occurrence of each element.
func RemoveDuplicatesFromList[S ~[]E, E comparable](list S) S {
	seen := make(map[E]struct{}, len(list))
	out := make(S, 0, len(list))

	for _, item := range list {
		if _, ok := seen[item]; ok {
			continue
		}

		seen[item] = struct{}{}

		out = append(out, item)
	}

	return out
}

// SortedKeys returns the keys of the given map in sorted order. Used to ensure we always iterate over maps in a
// consistent order, since Go randomizes map iteration.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
