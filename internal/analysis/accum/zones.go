package accum

import "sort"

// SelectZones deduplicates detected candidates into at most MaxZones
// non-overlapping zones. Candidates are taken greedily by descending score; a
// candidate is rejected when it overlaps an accepted zone by at least
// OverlapRatio of the shorter of the two lengths, or when it sits within
// ZoneGapDays trading days of one — adjacency that would describe the same
// accumulation event twice.
func SelectZones(candidates []Candidate, cfg Config) []Zone {
	cfg = cfg.Normalize()
	detected := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Detected {
			detected = append(detected, c)
		}
	}
	if len(detected) == 0 {
		return nil
	}
	sort.SliceStable(detected, func(i, j int) bool {
		if detected[i].Score != detected[j].Score {
			return detected[i].Score > detected[j].Score
		}
		return detected[i].Start < detected[j].Start
	})

	zones := make([]Zone, 0, cfg.MaxZones)
	for _, c := range detected {
		if len(zones) >= cfg.MaxZones {
			break
		}
		if accepts(zones, c, cfg) {
			zones = append(zones, c)
		}
	}
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Start < zones[j].Start })
	return zones
}

func accepts(zones []Zone, c Candidate, cfg Config) bool {
	for _, z := range zones {
		ov := overlapDays(c, z)
		// Measure against the shorter zone so a long window cannot swallow
		// a short accepted zone while staying under the ratio itself.
		shorter := c.Len()
		if z.Len() < shorter {
			shorter = z.Len()
		}
		if float64(ov) >= cfg.OverlapRatio*float64(shorter) {
			return false
		}
		if ov == 0 && gapDays(c, z) <= cfg.ZoneGapDays {
			return false
		}
	}
	return true
}

func overlapDays(a, b Candidate) int {
	lo := a.Start
	if b.Start > lo {
		lo = b.Start
	}
	hi := a.End
	if b.End < hi {
		hi = b.End
	}
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

func gapDays(a, b Candidate) int {
	if a.Start > b.End {
		return a.Start - b.End - 1
	}
	if b.Start > a.End {
		return b.Start - a.End - 1
	}
	return 0
}
