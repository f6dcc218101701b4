package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sg6/epub-translator/book"
	"github.com/sg6/epub-translator/book/booktest"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		in, suffix, want string
	}{
		{"books/Dune.epub", "_translated", "Dune_translated.epub"},
		{"/tmp/a.b.epub", "_translated", "a.b_translated.epub"},
		{"noext", "_pt", "noext_pt"},
	}
	for _, tc := range cases {
		if got := OutputName(tc.in, tc.suffix); got != tc.want {
			t.Errorf("OutputName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "Dune.epub", booktest.Doc("ch1", "Hi"))
	pkg, err := book.Open(in)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	work := filepath.Join(dir, "work")
	if err := os.Mkdir(work, 0o755); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "translated_books")
	e := Exporter{WorkDir: work, OutputDir: outDir}

	got, err := e.Export(pkg, in)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if want := filepath.Join(outDir, "Dune_translated.epub"); got != want {
		t.Errorf("path = %s, want %s", got, want)
	}
	if _, err := book.Open(got); err != nil {
		t.Errorf("exported book unreadable: %v", err)
	}
	if runtime.GOOS != "windows" {
		st, err := os.Stat(got)
		if err != nil {
			t.Fatal(err)
		}
		if mode := st.Mode().Perm(); mode != 0o644 {
			t.Errorf("mode = %v, want -rw-r--r--", mode)
		}
	}
	if left, _ := os.ReadDir(work); len(left) != 0 {
		t.Errorf("work dir not cleaned: %v", left)
	}
}

func TestExportRelocationFailure(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "b.epub", booktest.Doc("ch1", "Hi"))
	pkg, err := book.Open(in)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// A regular file where the output directory should be.
	blocker := filepath.Join(dir, "out")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	work := t.TempDir()
	_, err = Exporter{WorkDir: work, OutputDir: blocker}.Export(pkg, in)
	var re *RelocationError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RelocationError", err)
	}
	if left, _ := os.ReadDir(work); len(left) != 0 {
		t.Errorf("temporary file left behind: %v", left)
	}
}

func TestExportWriteFailure(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "b.epub", booktest.Doc("ch1", "Hi"))
	pkg, err := book.Open(in)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	_, err = Exporter{WorkDir: filepath.Join(dir, "missing"), OutputDir: outDir}.Export(pkg, in)
	var we *book.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("err = %v, want *book.WriteError", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("output dir should not exist after a write failure")
	}
}

func TestTaskEvents(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "book.epub",
		booktest.Doc("ch1", "Hello"),
		booktest.File{ID: "css", Href: "s.css", MediaType: "text/css", Body: "x"},
	)
	var sunk []int
	job := Job{
		Input: in,
		Pipeline: Pipeline{
			Translator: &stub{dict: map[string]string{"Hello": "Ola"}},
			Source:     "en",
			Target:     "pt",
			Progress:   func(p int) { sunk = append(sunk, p) },
		},
		Exporter: Exporter{WorkDir: dir, OutputDir: filepath.Join(dir, "out")},
	}

	var percents []int
	var last Event
	for ev := range Start(context.Background(), job).Events() {
		if ev.Kind == Progress {
			percents = append(percents, ev.Percent)
		}
		last = ev
	}
	if last.Kind != Done || last.Err != nil {
		t.Fatalf("last event = %+v, want Done", last)
	}
	if last.Output != filepath.Join(dir, "out", "book_translated.epub") {
		t.Errorf("output = %s", last.Output)
	}
	if len(percents) != 2 || percents[1] != 100 {
		t.Errorf("progress = %v", percents)
	}
	if len(sunk) != 2 {
		t.Errorf("job sink called %d times, want 2", len(sunk))
	}
	if last.Stats.Units != 1 {
		t.Errorf("stats = %+v", last.Stats)
	}
}

func TestTaskFailsOnBadInput(t *testing.T) {
	job := Job{Input: filepath.Join(t.TempDir(), "missing.epub"), Pipeline: Pipeline{Translator: &stub{}}}
	ev := Start(context.Background(), job).Wait()
	var re *book.ReadError
	if ev.Kind != Failed || !errors.As(ev.Err, &re) {
		t.Fatalf("event = %+v, want Failed with *book.ReadError", ev)
	}
}

func TestTaskFailsOnPanic(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "book.epub", booktest.Doc("ch1", "Hello"))
	job := Job{
		Input: in,
		Pipeline: Pipeline{
			Translator: &stub{},
			Progress:   func(int) { panic("sink broke") },
		},
		Exporter: Exporter{WorkDir: dir, OutputDir: filepath.Join(dir, "out")},
	}
	ev := Start(context.Background(), job).Wait()
	if ev.Kind != Failed || ev.Err == nil || !strings.Contains(ev.Err.Error(), "sink broke") {
		t.Fatalf("event = %+v, want Failed with the panic", ev)
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Errorf("output dir created after a failed run: %v", err)
	}
}

func TestJobDetectsSource(t *testing.T) {
	dir := t.TempDir()
	in := booktest.WriteFile(t, dir, "book.epub", booktest.Doc("ch1",
		"It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness.",
		"It was the epoch of belief, it was the epoch of incredulity, it was the season of Light, it was the season of Darkness.",
		"We had everything before us, we had nothing before us, we were all going direct to Heaven, we were all going direct the other way.",
	))
	var sources []string
	tr := translatorFunc(func(text, src, dst string) (string, error) {
		sources = append(sources, src)
		return text, nil
	})
	job := Job{
		Input:    in,
		Pipeline: Pipeline{Translator: tr, Source: "auto", Target: "pt"},
		Exporter: Exporter{WorkDir: dir, OutputDir: filepath.Join(dir, "out")},
	}
	if _, _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, s := range sources {
		if s != "en" {
			t.Fatalf("sources = %v, want en", sources)
		}
	}
}

type translatorFunc func(text, src, dst string) (string, error)

func (f translatorFunc) Translate(_ context.Context, text, src, dst string) (string, error) {
	return f(text, src, dst)
}
