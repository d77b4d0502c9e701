// Package match pairs request records from two runs by HTTP method and URL
// path.
package match

import (
	"strings"

	"apidiff/internal/models"
)

// Key is the matching identity: method upper-cased, path compared exactly.
type Key struct {
	Method string
	Path   string
}

func KeyOf(r models.RequestRecord) Key {
	return Key{Method: strings.ToUpper(r.Method), Path: r.Path}
}

func (k Key) String() string {
	return k.Method + " " + k.Path
}

type Pair struct {
	Old models.RequestRecord
	New models.RequestRecord
}

type Result struct {
	Pairs     []Pair
	OnlyInOld []models.RequestRecord
	OnlyInNew []models.RequestRecord
}

// Match pairs records sharing a key in lock-step: first old with first new,
// second with second, and so on, preserving input order. Leftovers and
// unshared keys land in the only-lists. No fuzzy or prefix matching.
func Match(old, new []models.RequestRecord) Result {
	queues := map[Key][]int{}
	for i, r := range new {
		k := KeyOf(r)
		queues[k] = append(queues[k], i)
	}

	var res Result
	consumed := make([]bool, len(new))

	for _, r := range old {
		k := KeyOf(r)
		queue := queues[k]
		if len(queue) == 0 {
			res.OnlyInOld = append(res.OnlyInOld, r)
			continue
		}

		idx := queue[0]
		queues[k] = queue[1:]
		consumed[idx] = true
		res.Pairs = append(res.Pairs, Pair{Old: r, New: new[idx]})
	}

	for i, r := range new {
		if !consumed[i] {
			res.OnlyInNew = append(res.OnlyInNew, r)
		}
	}

	return res
}
