package problem

import (
	"sort"

	"github.com/swarmguard/judge-engine/internal/model"
)

// computeExecOrder assigns each testdata id a position determining the
// order its Execute/Scoring task pair becomes eligible to run. With
// skip_nonac off, each testdata keeps its position in testDataIDs. With it
// on, testdatas are scanned from most to fewest subtasks and each joins the
// first layer that does not already cover all of its subtasks (so two
// testdatas with the same subtask set land in different layers), then
// lower layers run first, mirroring
// get_exec_order's binary-search-over-layers algorithm.
func computeExecOrder(chal *model.Challenge, testDataIDs []int, skipNonAC bool) map[int]int {
	order := make(map[int]int, len(testDataIDs))
	for i, id := range testDataIDs {
		order[id] = i
	}
	if !skipNonAC {
		return order
	}

	scanOrder := make([]int, len(testDataIDs))
	copy(scanOrder, testDataIDs)
	sort.SliceStable(scanOrder, func(i, j int) bool {
		return len(chal.TestDatas[scanOrder[i]].Subtasks) > len(chal.TestDatas[scanOrder[j]].Subtasks)
	})

	var layers []map[int]struct{}
	testDataLayer := make(map[int]int, len(testDataIDs))

	for _, id := range scanOrder {
		subtasks := chal.TestDatas[id].Subtasks
		pos := lowerBoundLayer(layers, subtasks)
		if pos == len(layers) {
			layers = append(layers, make(map[int]struct{}))
		}
		for s := range subtasks {
			layers[pos][s] = struct{}{}
		}
		testDataLayer[id] = pos
	}

	inverseOrder := make([]int, len(testDataIDs))
	copy(inverseOrder, testDataIDs)
	sort.SliceStable(inverseOrder, func(i, j int) bool {
		return testDataLayer[inverseOrder[i]] < testDataLayer[inverseOrder[j]]
	})

	for i, id := range inverseOrder {
		order[id] = i
	}
	return order
}

// lowerBoundLayer returns the first layer index that does not yet contain
// every subtask in subtasks — the first layer this testdata can safely join.
func lowerBoundLayer(layers []map[int]struct{}, subtasks map[int]struct{}) int {
	left, right := 0, len(layers)
	for left < right {
		mid := (left + right) / 2
		if containsAll(layers[mid], subtasks) {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

func containsAll(layer map[int]struct{}, subtasks map[int]struct{}) bool {
	for s := range subtasks {
		if _, ok := layer[s]; !ok {
			return false
		}
	}
	return true
}
