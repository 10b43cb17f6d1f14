package models

import (
	"testing"

	torch "github.com/wangkuiyi/gotorch"
)

func checkShape(t *testing.T, got []int64, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("shape %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("shape %v, want %v", got, want)
		}
	}
}

func TestResNet50OutputShape(t *testing.T) {
	model := ResNet50(1000)
	x := torch.RandN([]int64{2, 3, 224, 224}, false)
	y := model.Forward(x)
	checkShape(t, y.Shape(), 2, 1000)
}

func TestResNet152OutputShape(t *testing.T) {
	model := ResNet152(1000)
	x := torch.RandN([]int64{1, 3, 224, 224}, false)
	y := model.Forward(x)
	checkShape(t, y.Shape(), 1, 1000)
}

func TestTinyBasicVariant(t *testing.T) {
	// The adaptive pool makes the head independent of input resolution, so
	// a small variant accepts small images.
	model := NewResNet(Basic, [4]int64{1, 1, 1, 1}, 10)
	x := torch.RandN([]int64{4, 3, 64, 64}, false)
	y := model.Forward(x)
	checkShape(t, y.Shape(), 4, 10)
}
