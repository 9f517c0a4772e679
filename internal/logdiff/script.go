package logdiff

import (
	"context"
	"math"
)

const (
	// costCheckEvery is how many search steps run between context checks.
	costCheckEvery = 256
	// minTooExpensive is the lowest edit cost at which the search stops
	// looking for an optimal split and takes the best one found so far.
	minTooExpensive = 4096
)

// side is one file's view of the region between the common prefix and
// suffix. changed is offset by one so index 0 and len(equivs)+1 act as
// unchanged sentinels.
type side struct {
	equivs      []int
	changed     []bool
	undiscarded []int
	realIndex   []int
}

func (s *side) mark(i int) { s.changed[i+1] = true }

type partition struct {
	x, y                 int
	loMinimal, hiMinimal bool
}

// differ holds the state of one edit script computation: two sides, the
// diagonal vectors of the middle snake search and the search budget.
type differ struct {
	ctx          context.Context
	sides        [2]side
	fd, bd       []int
	offset       int
	tooExpensive int
	steps        int
}

// editScript returns the changes that turn a into b, before any blank
// filtering. Kind is left unset.
func editScript(ctx context.Context, a, b Text) ([]Hunk, error) {
	n0, n1 := len(a.Lines), len(b.Lines)
	same := func(i, j int) bool {
		return a.Lines[i] == b.Lines[j] && (a.NoEOL && i == n0-1) == (b.NoEOL && j == n1-1)
	}
	prefix := 0
	for prefix < n0 && prefix < n1 && same(prefix, prefix) {
		prefix++
	}
	suffix := 0
	for limit := min(n0, n1) - prefix; suffix < limit && same(n0-1-suffix, n1-1-suffix); {
		suffix++
	}

	classes := make(map[string]int)
	classify := func(lines []string) []int {
		equivs := make([]int, len(lines))
		for i, line := range lines {
			key := squash(line)
			class, ok := classes[key]
			if !ok {
				class = len(classes) + 1
				classes[key] = class
			}
			equivs[i] = class
		}
		return equivs
	}

	d := &differ{ctx: ctx}
	d.sides[0].equivs = classify(a.Lines[prefix : n0-suffix])
	d.sides[1].equivs = classify(b.Lines[prefix : n1-suffix])
	for i := range d.sides {
		d.sides[i].changed = make([]bool, len(d.sides[i].equivs)+2)
	}
	d.discardConfusingLines(len(classes) + 1)

	xn, yn := len(d.sides[0].undiscarded), len(d.sides[1].undiscarded)
	d.fd = make([]int, xn+yn+3)
	d.bd = make([]int, xn+yn+3)
	d.offset = yn + 1
	d.tooExpensive = 1
	for diags := xn + yn + 3; diags != 0; diags >>= 2 {
		d.tooExpensive <<= 1
	}
	d.tooExpensive = max(minTooExpensive, d.tooExpensive)

	if err := d.compareSeq(0, xn, 0, yn, false); err != nil {
		return nil, err
	}
	d.shiftBoundaries()
	return d.changes(prefix), nil
}

// discardConfusingLines sets aside lines that cannot match anything in the
// other file, and runs of lines that match too many, so the search works on
// a shorter sequence. Set-aside lines are marked changed up front.
func (d *differ) discardConfusingLines(nclasses int) {
	var counts [2][]int
	for f := range d.sides {
		counts[f] = make([]int, nclasses)
		for _, e := range d.sides[f].equivs {
			counts[f][e]++
		}
	}

	// 1 discards a line for good, 2 only if its neighbours are discarded too.
	var discards [2][]byte
	for f := range d.sides {
		equivs := d.sides[f].equivs
		end := len(equivs)
		many := 5
		for tem := end / 64 >> 2; tem > 0; tem >>= 2 {
			many *= 2
		}
		discards[f] = make([]byte, end)
		for i, e := range equivs {
			switch n := counts[1-f][e]; {
			case n == 0:
				discards[f][i] = 1
			case n > many:
				discards[f][i] = 2
			}
		}
	}

	for f := range d.sides {
		ds := discards[f]
		end := len(ds)
		for i := 0; i < end; i++ {
			switch {
			case ds[i] == 2:
				ds[i] = 0
			case ds[i] != 0:
				provisional := 0
				j := i
				for ; j < end && ds[j] != 0; j++ {
					if ds[j] == 2 {
						provisional++
					}
				}
				for j > i && ds[j-1] == 2 {
					j--
					ds[j] = 0
					provisional--
				}
				length := j - i

				if provisional*4 > length {
					for j > i {
						j--
						if ds[j] == 2 {
							ds[j] = 0
						}
					}
					continue
				}

				minimum := 1
				for tem := length >> 4; tem > 0; tem >>= 2 {
					minimum <<= 1
				}
				minimum++
				consec := 0
				for j = 0; j < length; j++ {
					if ds[i+j] != 2 {
						consec = 0
						continue
					}
					consec++
					if minimum == consec {
						j -= consec
					} else if minimum < consec {
						ds[i+j] = 0
					}
				}

				keepEdge(ds, i, 1, length)
				i += length - 1
				keepEdge(ds, i, -1, length)
			}
		}
	}

	for f := range d.sides {
		s := &d.sides[f]
		for i, e := range s.equivs {
			if discards[f][i] != 0 {
				s.mark(i)
				continue
			}
			s.undiscarded = append(s.undiscarded, e)
			s.realIndex = append(s.realIndex, i)
		}
	}
}

// keepEdge cancels provisional discards at one end of a run, walking from i
// in direction step until three definite discards in a row are seen.
func keepEdge(ds []byte, i, step, length int) {
	consec := 0
	for j := 0; j < length; j++ {
		k := i + step*j
		if j >= 8 && ds[k] == 1 {
			return
		}
		switch ds[k] {
		case 2:
			consec = 0
			ds[k] = 0
		case 0:
			consec = 0
		default:
			consec++
		}
		if consec == 3 {
			return
		}
	}
}

// compareSeq marks the changed lines of x[xoff:xlim] against y[yoff:ylim],
// splitting at the middle snake until one side is empty.
func (d *differ) compareSeq(xoff, xlim, yoff, ylim int, minimal bool) error {
	x, y := &d.sides[0], &d.sides[1]
	xv, yv := x.undiscarded, y.undiscarded
	for xoff < xlim && yoff < ylim && xv[xoff] == yv[yoff] {
		xoff++
		yoff++
	}
	for xoff < xlim && yoff < ylim && xv[xlim-1] == yv[ylim-1] {
		xlim--
		ylim--
	}

	switch {
	case xoff == xlim:
		for i := yoff; i < ylim; i++ {
			y.mark(y.realIndex[i])
		}
	case yoff == ylim:
		for i := xoff; i < xlim; i++ {
			x.mark(x.realIndex[i])
		}
	default:
		part, err := d.diag(xoff, xlim, yoff, ylim, minimal)
		if err != nil {
			return err
		}
		if err := d.compareSeq(xoff, part.x, yoff, part.y, part.loMinimal); err != nil {
			return err
		}
		return d.compareSeq(part.x, xlim, part.y, ylim, part.hiMinimal)
	}
	return nil
}

// diag finds the midpoint of the shortest edit script for the two ranges
// by searching forward and backward at once. Past tooExpensive steps it
// gives up on minimality and returns the furthest reaching point found.
func (d *differ) diag(xoff, xlim, yoff, ylim int, minimal bool) (partition, error) {
	xv, yv := d.sides[0].undiscarded, d.sides[1].undiscarded
	fd, bd, off := d.fd, d.bd, d.offset
	dmin, dmax := xoff-ylim, xlim-yoff
	fmid, bmid := xoff-yoff, xlim-ylim
	fmin, fmax := fmid, fmid
	bmin, bmax := bmid, bmid
	odd := (fmid-bmid)&1 != 0

	fd[fmid+off] = xoff
	bd[bmid+off] = xlim

	for c := 1; ; c++ {
		d.steps++
		if d.steps%costCheckEvery == 0 {
			if err := d.ctx.Err(); err != nil {
				return partition{}, err
			}
		}

		if fmin > dmin {
			fmin--
			fd[fmin-1+off] = -1
		} else {
			fmin++
		}
		if fmax < dmax {
			fmax++
			fd[fmax+1+off] = -1
		} else {
			fmax--
		}
		for k := fmax; k >= fmin; k -= 2 {
			tlo, thi := fd[k-1+off], fd[k+1+off]
			x := tlo + 1
			if tlo < thi {
				x = thi
			}
			y := x - k
			for x < xlim && y < ylim && xv[x] == yv[y] {
				x++
				y++
			}
			fd[k+off] = x
			if odd && bmin <= k && k <= bmax && bd[k+off] <= x {
				return partition{x: x, y: y, loMinimal: true, hiMinimal: true}, nil
			}
		}

		if bmin > dmin {
			bmin--
			bd[bmin-1+off] = math.MaxInt
		} else {
			bmin++
		}
		if bmax < dmax {
			bmax++
			bd[bmax+1+off] = math.MaxInt
		} else {
			bmax--
		}
		for k := bmax; k >= bmin; k -= 2 {
			tlo, thi := bd[k-1+off], bd[k+1+off]
			x := thi - 1
			if tlo < thi {
				x = tlo
			}
			y := x - k
			for xoff < x && yoff < y && xv[x-1] == yv[y-1] {
				x--
				y--
			}
			bd[k+off] = x
			if !odd && fmin <= k && k <= fmax && x <= fd[k+off] {
				return partition{x: x, y: y, loMinimal: true, hiMinimal: true}, nil
			}
		}

		if minimal || c < d.tooExpensive {
			continue
		}

		fxybest, fxbest := -1, 0
		for k := fmax; k >= fmin; k -= 2 {
			x := min(fd[k+off], xlim)
			y := x - k
			if ylim < y {
				x, y = ylim+k, ylim
			}
			if fxybest < x+y {
				fxybest, fxbest = x+y, x
			}
		}
		bxybest, bxbest := math.MaxInt, 0
		for k := bmax; k >= bmin; k -= 2 {
			x := max(xoff, bd[k+off])
			y := x - k
			if y < yoff {
				x, y = yoff+k, yoff
			}
			if x+y < bxybest {
				bxybest, bxbest = x+y, x
			}
		}
		if (xlim+ylim)-bxybest < fxybest-(xoff+yoff) {
			return partition{x: fxbest, y: fxybest - fxbest, loMinimal: true}, nil
		}
		return partition{x: bxbest, y: bxybest - bxbest, hiMinimal: true}, nil
	}
}

// shiftBoundaries slides each run of changed lines as far down as it goes
// while it still covers equivalent lines, preferring a spot that lines up
// with a run in the other file. This merges runs and keeps blank lines
// together at the edges of a change.
func (d *differ) shiftBoundaries() {
	for f := range d.sides {
		equivs := d.sides[f].equivs
		ch := d.sides[f].changed
		other := d.sides[1-f].changed
		end := len(equivs)
		i, j := 0, 0

		for {
			for i < end && !ch[i+1] {
				for {
					was := other[j+1]
					j++
					if !was {
						break
					}
				}
				i++
			}
			if i == end {
				break
			}

			start := i
			for {
				i++
				if !ch[i+1] {
					break
				}
			}
			for other[j+1] {
				j++
			}

			var corresponding int
			for {
				runLength := i - start

				for start > 0 && equivs[start-1] == equivs[i-1] {
					start--
					ch[start+1] = true
					i--
					ch[i+1] = false
					for ch[start] {
						start--
					}
					for {
						j--
						if !other[j+1] {
							break
						}
					}
				}

				corresponding = end
				if other[j] {
					corresponding = i
				}

				for i != end && equivs[start] == equivs[i] {
					ch[start+1] = false
					start++
					ch[i+1] = true
					i++
					for ch[i+1] {
						i++
					}
					for {
						j++
						if !other[j+1] {
							break
						}
						corresponding = i
					}
				}

				if runLength == i-start {
					break
				}
			}

			for corresponding < i {
				start--
				ch[start+1] = true
				i--
				ch[i+1] = false
				for {
					j--
					if !other[j+1] {
						break
					}
				}
			}
		}
	}
}

// changes groups the marked lines into hunks in whole-file line numbers.
func (d *differ) changes(offset int) []Hunk {
	c0, c1 := d.sides[0].changed, d.sides[1].changed
	n0, n1 := len(d.sides[0].equivs), len(d.sides[1].equivs)
	var hunks []Hunk
	for i0, i1 := 0, 0; i0 < n0 || i1 < n1; i0, i1 = i0+1, i1+1 {
		if !c0[i0+1] && !c1[i1+1] {
			continue
		}
		s0, s1 := i0, i1
		for c0[i0+1] {
			i0++
		}
		for c1[i1+1] {
			i1++
		}
		hunks = append(hunks, Hunk{I1: s0 + offset, I2: i0 + offset, J1: s1 + offset, J2: i1 + offset})
	}
	return hunks
}
