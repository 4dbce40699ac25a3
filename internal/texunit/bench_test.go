package texunit

import (
	"testing"

	"github.com/gogpu/glstate/device"
)

func BenchmarkTableAssign(b *testing.B) {
	tbl := New(32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Assign(i%32, device.TextureID(i+1))
	}
}

func BenchmarkTableLeastRecentlyUsed(b *testing.B) {
	tbl := New(32)
	for i := 0; i < 32; i++ {
		tbl.Assign(i, device.TextureID(i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx, _ := tbl.LeastRecentlyUsed()
		tbl.Touch(idx)
	}
}

func BenchmarkTableFirstEmptyFull(b *testing.B) {
	tbl := New(32)
	for i := 0; i < 32; i++ {
		tbl.Assign(i, device.TextureID(i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.FirstEmpty()
	}
}
