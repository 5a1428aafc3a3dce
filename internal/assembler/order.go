package assembler

import (
	"cmp"
	"math"
	"slices"

	"github.com/MeKo-Tech/docweave/internal/geometry"
)

// medianHeight is the median box height, averaging the two middle values
// for an even count.
func medianHeight(boxes []geometry.Box) float64 {
	if len(boxes) == 0 {
		return 0
	}
	hs := make([]float64, len(boxes))
	for i, b := range boxes {
		hs[i] = b.Height()
	}
	slices.Sort(hs)
	n := len(hs)
	if n%2 == 1 {
		return hs[n/2]
	}
	return (hs[n/2-1] + hs[n/2]) / 2
}

// readingOrder sorts box indices by xmin + 2*ymax/median height, which scans
// top to bottom then left to right. Ties keep input order. With a zero
// median height boxes are ordered by (ymax, xmin) instead.
func readingOrder(boxes []geometry.Box) []int {
	return orderBy(boxes, medianHeight(boxes))
}

func orderBy(boxes []geometry.Box, yMed float64) []int {
	idx := make([]int, len(boxes))
	for i := range idx {
		idx[i] = i
	}
	if yMed <= 0 || math.IsNaN(yMed) {
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Or(
				cmp.Compare(boxes[a].MaxY, boxes[b].MaxY),
				cmp.Compare(boxes[a].MinX, boxes[b].MinX),
			)
		})
		return idx
	}
	keys := make([]float64, len(boxes))
	for i, b := range boxes {
		keys[i] = b.MinX + 2*b.MaxY/yMed
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(keys[a], keys[b])
	})
	return idx
}

// resolveLines walks boxes in reading order and starts a new line whenever a
// box's vertical center strays from the running mean center of the current
// line by half the median height or more. Each line is then split at wide
// horizontal gaps.
func (a *Assembler) resolveLines(boxes []geometry.Box) [][]int {
	yMed := medianHeight(boxes)
	order := orderBy(boxes, yMed)
	yc := func(i int) float64 { return (boxes[i].MinY + boxes[i].MaxY) / 2 }

	var lines [][]int
	cur := []int{order[0]}
	sum := yc(order[0])
	for _, i := range order[1:] {
		if math.Abs(yc(i)-sum/float64(len(cur))) < yMed/2 {
			cur = append(cur, i)
			sum += yc(i)
			continue
		}
		lines = append(lines, a.subLines(boxes, cur)...)
		cur = []int{i}
		sum = yc(i)
	}
	return append(lines, a.subLines(boxes, cur)...)
}

// subLines sorts the words of one line left to right and splits it wherever
// the gap to the previous word reaches the paragraph break.
func (a *Assembler) subLines(boxes []geometry.Box, words []int) [][]int {
	words = slices.Clone(words)
	slices.SortStableFunc(words, func(x, y int) int {
		return cmp.Compare(boxes[x].MinX, boxes[y].MinX)
	})
	var out [][]int
	sub := []int{words[0]}
	for _, i := range words[1:] {
		prev := boxes[sub[len(sub)-1]]
		if boxes[i].MinX-prev.MaxX >= a.cfg.ParagraphBreak {
			out = append(out, sub)
			sub = nil
		}
		sub = append(sub, i)
	}
	return append(out, sub)
}
