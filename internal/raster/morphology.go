package raster

import "github.com/MeKo-Tech/docweave/internal/mempool"

// OpeningKernelSize is the square kernel size used to denoise a map of the
// given height: one pixel plus one per 512 rows.
func OpeningKernelSize(height int) int {
	return 1 + height/512
}

// Open performs a morphological opening (erosion then dilation) with a k×k
// square kernel anchored at k/2. Dilation uses the reflected kernel so the
// result is always a subset of b, also for even k. Pixels outside the image
// are ignored by both passes. A kernel of size 1 or less returns a copy.
func Open(b Bitmap, k int) Bitmap {
	out := NewBitmap(b.Height, b.Width)
	if k <= 1 {
		copy(out.Data, b.Data)
		return out
	}
	eroded := Bitmap{Height: b.Height, Width: b.Width, Data: mempool.Bools.Get(len(b.Data))}
	defer mempool.Bools.Put(eroded.Data)

	morph(b, eroded, k, true)
	morph(eroded, out, k, false)
	return out
}

// Erode returns the erosion of b with a k×k kernel.
func Erode(b Bitmap, k int) Bitmap {
	out := NewBitmap(b.Height, b.Width)
	morph(b, out, k, true)
	return out
}

// Dilate returns the dilation of b with a k×k kernel.
func Dilate(b Bitmap, k int) Bitmap {
	out := NewBitmap(b.Height, b.Width)
	morph(b, out, k, false)
	return out
}

// morph runs a separable erosion (all) or dilation (any) from src into dst.
// The square window is the product of two 1-D windows, so rows are filtered
// first into a scratch mask and columns second.
func morph(src, dst Bitmap, k int, all bool) {
	if k <= 1 {
		copy(dst.Data, src.Data)
		return
	}
	w, h := src.Width, src.Height
	tmp := mempool.Bools.Get(w * h)
	defer mempool.Bools.Put(tmp)

	line := make([]bool, max(w, h))
	res := make([]bool, max(w, h))
	for y := range h {
		copy(line, src.Data[y*w:(y+1)*w])
		filter1D(line[:w], res[:w], k, all)
		copy(tmp[y*w:(y+1)*w], res[:w])
	}
	for x := range w {
		for y := range h {
			line[y] = tmp[y*w+x]
		}
		filter1D(line[:h], res[:h], k, all)
		for y := range h {
			dst.Data[y*w+x] = res[y]
		}
	}
}

// filter1D applies a 1-D window of k pixels, clipped to the line, using a
// running count of set pixels. Erosion covers [i-k/2, i-k/2+k-1]; dilation
// covers the reflected window.
func filter1D(in, out []bool, k int, all bool) {
	n := len(in)
	prefix := make([]int, n+1)
	for i, v := range in {
		prefix[i+1] = prefix[i]
		if v {
			prefix[i+1]++
		}
	}
	a := k / 2
	if !all {
		a = k - 1 - a
	}
	for i := range n {
		lo := max(i-a, 0)
		hi := min(i-a+k, n)
		set := prefix[hi] - prefix[lo]
		if all {
			out[i] = set == hi-lo
		} else {
			out[i] = set > 0
		}
	}
}
