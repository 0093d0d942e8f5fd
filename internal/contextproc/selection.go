package contextproc

import "sort"

// deduplicate groups segments by pairwise Jaccard similarity at or above
// the threshold and keeps only the highest-importance member of each
// group. Input must already be importance-sorted; output keeps that
// order except where a later, more important near-duplicate replaces an
// earlier one.
func deduplicate(segments []*ContentSegment, threshold float64) []*ContentSegment {
	var kept []*ContentSegment
	for _, seg := range segments {
		replaced := false
		duplicate := false
		for i, existing := range kept {
			if segmentSimilarity(seg, existing) < threshold {
				continue
			}
			duplicate = true
			if seg.Importance > existing.Importance {
				kept[i] = seg
				replaced = true
			}
			break
		}
		if !duplicate && !replaced {
			kept = append(kept, seg)
		}
	}
	return kept
}

// selectSegments orders candidates by intent strategy, then fills the
// token budget greedily. Each pick is charged its content tokens plus
// the per-segment assembly overhead (citation marker, separator), so
// the assembled context stays inside the budget. At least one segment
// is always selected, even when it alone exceeds the budget.
func selectSegments(segments []*ContentSegment, intent Intent, maxTokens, overhead int) []*ContentSegment {
	if len(segments) == 0 {
		return nil
	}
	ordered := orderForSelection(segments, intent)

	var selected []*ContentSegment
	running := 0
	for _, seg := range ordered {
		if running+seg.TokenCount+overhead > maxTokens {
			continue
		}
		selected = append(selected, seg)
		running += seg.TokenCount + overhead
	}
	if len(selected) == 0 {
		selected = []*ContentSegment{ordered[0]}
	}
	return rebalanceDiversity(selected, segments, maxTokens, overhead)
}

func orderForSelection(segments []*ContentSegment, intent Intent) []*ContentSegment {
	out := make([]*ContentSegment, len(segments))
	copy(out, segments)
	switch intent {
	case IntentComparative:
		return roundRobinByType(out, len(out))
	case IntentTemporal:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Recency > out[j].Recency
		})
	case IntentFactual:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Authority > out[j].Authority
		})
	case IntentExploratory:
		return diversityGreedy(out)
	default:
		// Importance order carried over from segmentation.
	}
	return out
}

// roundRobinByType interleaves segments across document types, capping
// each type at its fair share of the requested count.
func roundRobinByType(segments []*ContentSegment, limit int) []*ContentSegment {
	if len(segments) == 0 {
		return segments
	}
	byType := make(map[string][]*ContentSegment)
	var typeOrder []string
	for _, seg := range segments {
		if _, ok := byType[seg.Meta.DocType]; !ok {
			typeOrder = append(typeOrder, seg.Meta.DocType)
		}
		byType[seg.Meta.DocType] = append(byType[seg.Meta.DocType], seg)
	}
	perType := limit / len(typeOrder)
	if perType < 1 {
		perType = 1
	}
	taken := make(map[string]int)
	var out []*ContentSegment
	for len(out) < len(segments) {
		progressed := false
		for _, dt := range typeOrder {
			bucket := byType[dt]
			n := taken[dt]
			if n >= len(bucket) || (n >= perType && len(out) < limit) {
				continue
			}
			out = append(out, bucket[n])
			taken[dt] = n + 1
			progressed = true
		}
		if !progressed {
			// Caps exhausted; append the remainder in importance order.
			for _, dt := range typeOrder {
				out = append(out, byType[dt][taken[dt]:]...)
				taken[dt] = len(byType[dt])
			}
		}
	}
	return out
}

// diversityGreedy starts from the top segment and repeatedly picks the
// candidate maximizing a blend of importance and dissimilarity to the
// picks so far.
func diversityGreedy(segments []*ContentSegment) []*ContentSegment {
	if len(segments) < 2 {
		return segments
	}
	remaining := make([]*ContentSegment, len(segments)-1)
	copy(remaining, segments[1:])
	out := []*ContentSegment{segments[0]}
	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := -1.0
		for i, cand := range remaining {
			avgSim := 0.0
			for _, picked := range out {
				avgSim += segmentSimilarity(cand, picked)
			}
			avgSim /= float64(len(out))
			score := 0.7*cand.Importance + 0.3*(1-avgSim)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		out = append(out, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

// rebalanceDiversity re-runs selection round-robin across document types
// when the picked set leans too hard on too few types. The rebalanced
// set must fit the same budget and never represents fewer types than
// the original pick.
func rebalanceDiversity(selected, candidates []*ContentSegment, maxTokens, overhead int) []*ContentSegment {
	if len(selected) <= 3 {
		return selected
	}
	have := distinctTypes(selected)
	want := len(selected) / 2
	if want > 3 {
		want = 3
	}
	if have >= want {
		return selected
	}
	ordered := roundRobinByType(candidates, len(candidates))
	var rebalanced []*ContentSegment
	running := 0
	for _, seg := range ordered {
		if running+seg.TokenCount+overhead > maxTokens {
			continue
		}
		rebalanced = append(rebalanced, seg)
		running += seg.TokenCount + overhead
	}
	if len(rebalanced) == 0 || distinctTypes(rebalanced) < have {
		return selected
	}
	return rebalanced
}

func distinctTypes(segments []*ContentSegment) int {
	types := make(map[string]struct{})
	for _, seg := range segments {
		types[seg.Meta.DocType] = struct{}{}
	}
	return len(types)
}
