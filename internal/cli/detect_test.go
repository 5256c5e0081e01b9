package cli

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeSquarePNG writes a black image with a white square.
func writeSquarePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", "sub/c.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(dir, "notes.txt")

	got, err := collectImages([]string{dir, explicit, filepath.Join(dir, "b.png")})
	if err != nil {
		t.Fatalf("collectImages: %v", err)
	}
	want := []inputImage{
		{filepath.Join(dir, "a.JPG"), "a"},
		{filepath.Join(dir, "b.png"), "b"},
		{filepath.Join(dir, "notes.txt"), "notes"},
		{filepath.Join(dir, "sub", "c.gif"), filepath.Join("sub", "c")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := collectImages([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("missing path should fail")
	}
}

func TestCollectImages_SameBaseName(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "img.png"), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(other, "img.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	explicit := filepath.Join(other, "img.png")

	got, err := collectImages([]string{dir, explicit})
	if err != nil {
		t.Fatalf("collectImages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d images, want 3", len(got))
	}
	names := make(map[string]bool)
	for _, in := range got {
		if names[in.name] {
			t.Errorf("duplicate output name %q", in.name)
		}
		names[in.name] = true
	}
	for _, want := range []string{filepath.Join("a", "img"), filepath.Join("b", "img")} {
		if !names[want] {
			t.Errorf("missing output name %q in %v", want, got)
		}
	}
}

func TestDetectCommand_NestedInputs(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(in, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		writeSquarePNG(t, filepath.Join(in, sub, "img.png"))
	}

	if _, logs, err := runRoot(t, "", "detect", in, "--out", out); err != nil {
		t.Fatalf("detect: %v\n%s", err, logs)
	}
	for _, sub := range []string{"a", "b"} {
		if _, err := os.Stat(filepath.Join(out, sub, "img", summaryFile)); err != nil {
			t.Errorf("missing summary for %s/img.png: %v", sub, err)
		}
	}
}

func TestDetectCommand(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeSquarePNG(t, filepath.Join(in, "square.png"))

	_, logs, err := runRoot(t, "", "detect", in, "--out", out)
	if err != nil {
		t.Fatalf("detect: %v\n%s", err, logs)
	}

	stageDir := filepath.Join(out, "square")
	for _, name := range []string{edgesFile, houghFile, linesFile, segmentsFile, summaryFile} {
		if _, err := os.Stat(filepath.Join(stageDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(stageDir, summaryFile))
	if err != nil {
		t.Fatal(err)
	}
	var summary struct {
		Width     int `json:"width"`
		Height    int `json:"height"`
		LineCount int `json:"line_count"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Width != 64 || summary.Height != 64 {
		t.Errorf("summary size: got %dx%d, want 64x64", summary.Width, summary.Height)
	}
	if summary.LineCount == 0 {
		t.Error("square should produce lines")
	}

	f, err := os.Open(filepath.Join(stageDir, houghFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode hough.png: %v", err)
	}
	if cfg.Width != 360 || cfg.Height != 100 {
		t.Errorf("hough.png: got %dx%d, want 360x100 (theta x rho bins)", cfg.Width, cfg.Height)
	}
}

func TestDetectCommand_NoImages(t *testing.T) {
	if _, _, err := runRoot(t, "", "detect", t.TempDir()); err == nil {
		t.Error("empty directory should fail")
	}
}
