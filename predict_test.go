package main

import (
	"image"
	"testing"
)

func TestScaleToEdge(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{500, 375, 341, 256},  // landscape: height is the smaller edge
		{375, 500, 256, 341},  // portrait: width is the smaller edge
		{256, 256, 256, 256},  // already at the target
		{1024, 256, 1024, 256},
	}
	for _, c := range cases {
		gotW, gotH := scaleToEdge(c.w, c.h, resizeEdge)
		if gotW != c.wantW || gotH != c.wantH {
			t.Fatalf("scaleToEdge(%d, %d)=%dx%d, want %dx%d", c.w, c.h, gotW, gotH, c.wantW, c.wantH)
		}
	}
}

func TestScaleToEdgePreservesAspectAndCoversCrop(t *testing.T) {
	for _, dims := range [][2]int{{500, 375}, {375, 500}, {257, 1000}, {4000, 300}} {
		w, h := scaleToEdge(dims[0], dims[1], resizeEdge)
		if w < resizeEdge || h < resizeEdge {
			t.Fatalf("scaleToEdge(%d, %d)=%dx%d leaves an edge below %d", dims[0], dims[1], w, h, resizeEdge)
		}
		r := cropRect(w, h, 224)
		if r.Dx() != 224 || r.Dy() != 224 {
			t.Fatalf("crop window %v is not 224x224", r)
		}
		if !r.In(image.Rect(0, 0, w, h)) {
			t.Fatalf("crop window %v leaves the %dx%d image", r, w, h)
		}
	}
}

func TestCropRectCentered(t *testing.T) {
	r := cropRect(341, 256, 224)
	if r.Min.X != 58 || r.Min.Y != 16 {
		t.Fatalf("crop origin (%d, %d), want (58, 16)", r.Min.X, r.Min.Y)
	}
	if r.Max.X != 282 || r.Max.Y != 240 {
		t.Fatalf("crop corner (%d, %d), want (282, 240)", r.Max.X, r.Max.Y)
	}
}
