package data

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NumCatColumns partitions the column names of X by value type.
// Int and Float columns are numeric, String columns are categorical and
// everything else (Bool) is left out of both groups.
func NumCatColumns(X dataframe.DataFrame) (num, cat []string) {
	num, cat = []string{}, []string{}
	names := X.Names()
	for i, t := range X.Types() {
		switch t {
		case series.Int, series.Float:
			num = append(num, names[i])
		case series.String:
			cat = append(cat, names[i])
		}
	}
	return num, cat
}

// Batches returns contiguous [start, end) windows covering n rows in order.
// A non-positive size yields a single window.
func Batches(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
