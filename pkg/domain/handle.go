package domain

import (
	"sort"
	"strconv"
	"strings"
)

// CompareHandles orders branch handles the way a caller reads a keypad:
// the unhandled default first, then 1..9, 0, *, #, then other numeric handles
// (e.g. API response codes) numerically, then everything else lexicographically.
func CompareHandles(a, b string) int {
	ca, na := handleRank(a)
	cb, nb := handleRank(b)
	if ca != cb {
		return ca - cb
	}
	if na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortHandles sorts handles in place using CompareHandles.
func SortHandles(handles []string) {
	sort.SliceStable(handles, func(i, j int) bool {
		return CompareHandles(handles[i], handles[j]) < 0
	})
}

func handleRank(h string) (class int, num int64) {
	switch {
	case h == "":
		return 0, 0
	case len(h) == 1 && h[0] >= '1' && h[0] <= '9':
		return 1, int64(h[0] - '0')
	case h == "0":
		return 1, 10
	case h == "*":
		return 2, 0
	case h == "#":
		return 3, 0
	}
	if n, err := strconv.ParseInt(h, 10, 64); err == nil {
		return 4, n
	}
	return 5, 0
}
