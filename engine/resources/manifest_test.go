package resources

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestParseManifest(t *testing.T) {
	lines := []string{
		"vert vert.spv",
		"",
		"# comment",
		"  frag\tfrag.spv  ",
	}
	got, err := ParseManifest(lines)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	want := []ManifestEntry{{"vert", "vert.spv"}, {"frag", "frag.spv"}}
	if !slices.Equal(got, want) {
		t.Fatalf("ParseManifest\nhave %v\nwant %v", got, want)
	}
}

func TestParseManifestInvalid(t *testing.T) {
	for _, lines := range [][]string{
		{"vert"},
		{"vert vert.spv extra"},
		{"vert a.spv", "vert b.spv"},
	} {
		if _, err := ParseManifest(lines); err == nil {
			t.Errorf("ParseManifest(%q) succeeded", lines)
		}
	}
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte("a b\r\nc d\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if len(lines) != 2 || lines[1] != "c d" {
		t.Fatalf("ReadLines\nhave %q", lines)
	}
	if _, err := ReadLines(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Fatal("ReadLines succeeded on a missing file")
	}
}

func TestVertexLayout(t *testing.T) {
	if VertexSize != 28 {
		t.Fatalf("VertexSize\nhave %d\nwant 28", VertexSize)
	}
	if PositionOffset != 0 || ColorOffset != 12 {
		t.Fatalf("offsets\nhave %d, %d\nwant 0, 12", PositionOffset, ColorOffset)
	}
	v := []Vertex{{}, {}}
	if n := len(VertexBytes(v)); n != 56 {
		t.Fatalf("VertexBytes length\nhave %d\nwant 56", n)
	}
	idx := []uint32{0x04030201}
	b := IndexBytes(idx)
	if len(b) != 4 {
		t.Fatalf("IndexBytes length\nhave %d\nwant 4", len(b))
	}
	if VertexBytes(nil) != nil || IndexBytes(nil) != nil {
		t.Fatal("empty input must yield nil")
	}
	if MeshByteSize(4, 6) != 4*28+6*4 {
		t.Fatalf("MeshByteSize\nhave %d", MeshByteSize(4, 6))
	}
}
