package zarr

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-zarr/internal/dtype"
)

// chunkFiles lists the chunk files of an array directory, ignoring the
// header and attribute files.
func chunkFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Name() == ".zarray" || e.Name() == ".zattrs" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestGridWriteReopen(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{4, 4}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}

	// A[i,j] = 10*i + j, with axis 0 fastest varying.
	for j := uint64(0); j < 4; j++ {
		for i := uint64(0); i < 4; i++ {
			if err := a.Set(i+4*j, int32(10*i+j)); err != nil {
				t.Fatalf("Set(%d,%d) failed: %v", i, j, err)
			}
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	files := chunkFiles(t, dir)
	want := []string{"0.0", "0.1", "1.0", "1.1"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("chunk files mismatch (-want +got):\n%s", diff)
	}

	b, err := Open[int32](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()

	v, err := b.Get(2 + 4*3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 23 {
		t.Errorf("A[2,3] = %d, want 23", v)
	}

	for j := uint64(0); j < 4; j++ {
		for i := uint64(0); i < 4; i++ {
			v, err := b.Get(i + 4*j)
			if err != nil {
				t.Fatalf("Get(%d,%d) failed: %v", i, j, err)
			}
			if v != int32(10*i+j) {
				t.Errorf("A[%d,%d] = %d, want %d", i, j, v, 10*i+j)
			}
		}
	}
}

func TestFillValueReadThrough(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{2, 2}, []uint64{2, 2}, WithFillValue(7))
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}

	for i := uint64(0); i < a.Size(); i++ {
		v, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != 7 {
			t.Errorf("Get(%d) = %d, want fill value 7", i, v)
		}
	}
	if files := chunkFiles(t, dir); len(files) != 0 {
		t.Errorf("reading created chunk files: %v", files)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if files := chunkFiles(t, dir); len(files) != 0 {
		t.Errorf("closing a read-only array created chunk files: %v", files)
	}

	// The header still reached disk.
	if _, err := os.Stat(filepath.Join(dir, ".zarray")); err != nil {
		t.Errorf("header missing after Close: %v", err)
	}
}

func TestEvictionFlushesAndReloads(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{6}, []uint64{2}, WithCacheSize(2))
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	if err := a.Set(0, 1); err != nil {
		t.Fatalf("Set(0) failed: %v", err)
	}
	if err := a.Set(2, 2); err != nil {
		t.Fatalf("Set(2) failed: %v", err)
	}
	// Third chunk overflows the cache and evicts chunk 0, flushing it.
	if err := a.Set(4, 3); err != nil {
		t.Fatalf("Set(4) failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "0")); err != nil {
		t.Errorf("evicted chunk 0 was not flushed: %v", err)
	}

	v, err := a.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed: %v", err)
	}
	if v != 1 {
		t.Errorf("Get(0) after eviction = %d, want 1", v)
	}
}

func TestBigEndianOnDisk(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{4}, []uint64{4},
		WithEndian(Big), WithoutCompression())
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}

	values := []int32{1, 2, -3, 4}
	for i, v := range values {
		if err := a.Set(uint64(i), v); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "0"))
	if err != nil {
		t.Fatalf("reading chunk file: %v", err)
	}
	want := []byte{
		0, 0, 0, 1,
		0, 0, 0, 2,
		0xff, 0xff, 0xff, 0xfd,
		0, 0, 0, 4,
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("big-endian bytes mismatch (-want +got):\n%s", diff)
	}

	b, err := Open[int32](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	for i, wantV := range values {
		v, err := b.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != wantV {
			t.Errorf("Get(%d) = %d, want %d", i, v, wantV)
		}
	}
}

func TestBloscRawChunkFallThrough(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	for i, v := range []int32{5, 6, 7, 8} {
		if err := a.Set(uint64(i), v); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Replace the second chunk file with its raw, uncompressed bytes. The
	// codec's frame validation falls through to raw on read.
	raw := dtype.Bytes([]int32{7, 8}, binary.NativeEndian)
	if err := os.WriteFile(filepath.Join(dir, "1"), raw, 0o644); err != nil {
		t.Fatalf("replacing chunk file: %v", err)
	}

	b, err := Open[int32](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	for i, want := range []int32{5, 6, 7, 8} {
		v, err := b.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != want {
			t.Errorf("Get(%d) = %d, want %d", i, v, want)
		}
	}
}

func reopenRoundTrip[T Scalar](t *testing.T, values []T, opts ...Option) {
	t.Helper()
	dir := t.TempDir()

	a, err := CreateAt[T](dir, []uint64{uint64(len(values))}, []uint64{3}, opts...)
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	for i, v := range values {
		if err := a.Set(uint64(i), v); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := Open[T](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	for i, want := range values {
		v, err := b.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != want {
			t.Errorf("Get(%d) = %v, want %v", i, v, want)
		}
	}
}

func TestReopenEveryDtype(t *testing.T) {
	reopenRoundTrip(t, []int8{-1, 0, 1, 127, -128})
	reopenRoundTrip(t, []int16{-300, 0, 300, 17})
	reopenRoundTrip(t, []int32{1, 2, -3, 4})
	reopenRoundTrip(t, []int64{-1 << 40, 0, 1 << 40, 9})
	reopenRoundTrip(t, []uint8{0, 1, 255, 16})
	reopenRoundTrip(t, []uint16{0, 65535, 256, 1})
	reopenRoundTrip(t, []uint32{0, 1 << 30, 77, 3})
	reopenRoundTrip(t, []uint64{0, 1 << 60, 42, 8})
	reopenRoundTrip(t, []float32{-1.5, 0, 3.25, 100})
	reopenRoundTrip(t, []float64{-1.5, 0, 3.25, 1e300})
	reopenRoundTrip(t, []bool{true, false, true, true})
}

func TestReopenEveryEndianAndCompressor(t *testing.T) {
	values := []int32{3, -14, 159, 26}
	endians := []Endian{Little, Big, Irrelevant}

	for _, e := range endians {
		reopenRoundTrip(t, values, WithEndian(e))
		reopenRoundTrip(t, values, WithEndian(e), WithoutCompression())
		reopenRoundTrip(t, values, WithEndian(e), WithCompressorName("zstd"))
	}
}

func TestWritesSurviveEvictions(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int64](dir, []uint64{40}, []uint64{4}, WithCacheSize(2))
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	for i := uint64(0); i < a.Size(); i++ {
		if err := a.Set(i, int64(3*i)); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	// Overwrite a few elements after their chunks were evicted.
	for _, i := range []uint64{0, 7, 21} {
		if err := a.Set(i, -1); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}

	for i := uint64(0); i < a.Size(); i++ {
		want := int64(3 * i)
		if i == 0 || i == 7 || i == 21 {
			want = -1
		}
		v, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != want {
			t.Errorf("Get(%d) = %d, want %d", i, v, want)
		}
	}
}

func TestRowMajorOrder(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{2, 3}, []uint64{2, 3}, WithOrder(RowMajor))
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	for i := uint64(0); i < a.Size(); i++ {
		if err := a.Set(i, int32(i)); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := Open[int32](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	if b.Header().Order != RowMajor {
		t.Errorf("reopened order = %v, want row-major", b.Header().Order)
	}
	for i := uint64(0); i < b.Size(); i++ {
		v, err := b.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != int32(i) {
			t.Errorf("Get(%d) = %d, want %d", i, v, i)
		}
	}
}

func TestPartialEdgeChunks(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[uint16](dir, []uint64{5}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	for i := uint64(0); i < 5; i++ {
		if err := a.Set(i, uint16(i+1)); err != nil {
			t.Fatalf("Set(%d) failed: %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := Open[uint16](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	for i := uint64(0); i < 5; i++ {
		v, err := b.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != uint16(i+1) {
			t.Errorf("Get(%d) = %d, want %d", i, v, i+1)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	a, err := CreateAt[int32](t.TempDir(), []uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Get(4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Get: expected ErrOutOfRange, got %v", err)
	}
	if err := a.Set(100, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Set: expected ErrOutOfRange, got %v", err)
	}
}

func TestPositionalAccess(t *testing.T) {
	a, err := CreateAt[int32](t.TempDir(), []uint64{4, 4}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	for j := uint64(0); j < 4; j++ {
		for i := uint64(0); i < 4; i++ {
			if err := a.SetAt(int32(10*i+j), i, j); err != nil {
				t.Fatalf("SetAt(%d,%d) failed: %v", i, j, err)
			}
		}
	}

	// Positional and linear access agree: axis 0 varies fastest.
	v, err := a.At(2, 3)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	if v != 23 {
		t.Errorf("At(2,3) = %d, want 23", v)
	}
	lin, err := a.Get(2 + 4*3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if lin != v {
		t.Errorf("Get(14) = %d, At(2,3) = %d", lin, v)
	}

	if _, err := a.At(4, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(4,0): expected ErrOutOfRange, got %v", err)
	}
	if _, err := a.At(1); !errors.Is(err, ErrBadDimensions) {
		t.Errorf("At(1): expected ErrBadDimensions, got %v", err)
	}
	if err := a.SetAt(0, 0, 9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetAt(0,9): expected ErrOutOfRange, got %v", err)
	}
}

func TestPositionalAccessRowMajor(t *testing.T) {
	a, err := CreateAt[int32](t.TempDir(), []uint64{2, 3}, []uint64{2, 3}, WithOrder(RowMajor))
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	for i := uint64(0); i < 2; i++ {
		for j := uint64(0); j < 3; j++ {
			if err := a.SetAt(int32(10*i+j), i, j); err != nil {
				t.Fatalf("SetAt(%d,%d) failed: %v", i, j, err)
			}
		}
	}

	// Row-major strides axis N-1 fastest, so [i,j] lives at j + 3*i.
	for i := uint64(0); i < 2; i++ {
		for j := uint64(0); j < 3; j++ {
			v, err := a.At(i, j)
			if err != nil {
				t.Fatalf("At(%d,%d) failed: %v", i, j, err)
			}
			if v != int32(10*i+j) {
				t.Errorf("At(%d,%d) = %d, want %d", i, j, v, 10*i+j)
			}
			lin, err := a.Get(j + 3*i)
			if err != nil {
				t.Fatalf("Get(%d) failed: %v", j+3*i, err)
			}
			if lin != v {
				t.Errorf("Get(%d) = %d, At(%d,%d) = %d", j+3*i, lin, i, j, v)
			}
		}
	}
}

func TestOpenDtypeMismatch(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[float64](dir, []uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := Open[int32](dir); !errors.Is(err, ErrDtypeMismatch) {
		t.Errorf("expected ErrDtypeMismatch, got %v", err)
	}
}

func TestFill(t *testing.T) {
	a, err := CreateAt[float32](t.TempDir(), []uint64{3, 3}, []uint64{2, 2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	if err := a.Fill(2.5); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	for i := uint64(0); i < a.Size(); i++ {
		v, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != 2.5 {
			t.Errorf("Get(%d) = %v, want 2.5", i, v)
		}
	}
}

func TestIterator(t *testing.T) {
	a, err := CreateAt[int32](t.TempDir(), []uint64{6}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	i := int32(0)
	for it := a.Begin(); it.Valid(); it.Next() {
		if err := it.Set(i * i); err != nil {
			t.Fatalf("iterator Set failed: %v", err)
		}
		i++
	}

	it := a.Begin()
	for want := int32(0); want < 6; want++ {
		v, err := it.Value()
		if err != nil {
			t.Fatalf("iterator Value failed: %v", err)
		}
		if v != want*want {
			t.Errorf("element %d = %d, want %d", want, v, want*want)
		}
		it.Next()
	}

	if !it.Equal(a.End()) {
		t.Error("exhausted iterator does not equal the end sentinel")
	}
}

func TestIteratorEndSentinels(t *testing.T) {
	a, err := CreateAt[int32](t.TempDir(), []uint64{2}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	b, err := CreateAt[int32](t.TempDir(), []uint64{2}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer b.Close()

	// End sentinels compare equal regardless of their origin.
	if !a.End().Equal(b.End()) {
		t.Error("end sentinels of different arrays are not equal")
	}
	if a.Begin().Equal(b.Begin()) {
		t.Error("begin iterators of different arrays compare equal")
	}
	if a.Begin().Equal(a.End()) {
		t.Error("begin of a non-empty array equals end")
	}
}

func TestOpenArrayDispatch(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[float64](dir, []uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	if err := a.Set(1, 6.25); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ia, err := OpenArray(dir)
	if err != nil {
		t.Fatalf("OpenArray failed: %v", err)
	}
	defer ia.Close()

	if ia.Header().DataType != Float64 {
		t.Errorf("dtype = %v, want float64", ia.Header().DataType)
	}
	if diff := cmp.Diff([]uint64{4}, ia.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	v, err := ia.ElementAt(1)
	if err != nil {
		t.Fatalf("ElementAt failed: %v", err)
	}
	if v.(float64) != 6.25 {
		t.Errorf("ElementAt(1) = %v, want 6.25", v)
	}

	if _, ok := ia.(*Array[float64]); !ok {
		t.Errorf("OpenArray returned %T, want *Array[float64]", ia)
	}

	values, err := ReadAll[float64](ia)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 6.25, 0, 0}, values); diff != "" {
		t.Errorf("ReadAll mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadAll[int32](ia); !errors.Is(err, ErrDtypeMismatch) {
		t.Errorf("ReadAll with the wrong type: expected ErrDtypeMismatch, got %v", err)
	}
}

func TestFlushMidLife(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	defer a.Close()

	if err := a.Set(0, 9); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := a.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Header and touched chunk are durable while the array stays open.
	if _, err := os.Stat(filepath.Join(dir, ".zarray")); err != nil {
		t.Errorf("header missing after Flush: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "0")); err != nil {
		t.Errorf("chunk missing after Flush: %v", err)
	}
}

func TestAttributesPersist(t *testing.T) {
	dir := t.TempDir()

	a, err := CreateAt[int32](dir, []uint64{2}, []uint64{2})
	if err != nil {
		t.Fatalf("CreateAt failed: %v", err)
	}
	a.Attributes()["units"] = "meters"
	a.Attributes()["version"] = 3.0
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := Open[int32](dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()

	if got := b.Attributes()["units"]; got != "meters" {
		t.Errorf("units attribute = %v, want meters", got)
	}
	if got := b.Attributes()["version"]; got != 3.0 {
		t.Errorf("version attribute = %v, want 3", got)
	}
}
