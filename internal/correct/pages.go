// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package correct

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange parses a page selection like "1,5,10-12" into a sorted,
// deduplicated list of page numbers. An empty string selects all pages and
// returns nil.
func ParsePageRange(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if begin, end, ok := strings.Cut(part, "-"); ok {
			lo, err := parsePage(begin)
			if err != nil {
				return nil, err
			}
			hi, err := parsePage(end)
			if err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, fmt.Errorf("invalid page range %q: end before start", part)
			}
			for p := lo; p <= hi; p++ {
				seen[p] = true
			}
		} else {
			p, err := parsePage(part)
			if err != nil {
				return nil, err
			}
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePage(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 0, fmt.Errorf("invalid page number %q", strings.TrimSpace(s))
	}
	return p, nil
}
