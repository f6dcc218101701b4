package markup

import (
	"errors"
	"strings"
	"testing"
)

const page = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter</title></head>
<body>
<h1>Title</h1>
<p>
  Hello
</p>
<p>42</p>
<p class="x">World <em>again</em></p>
<p>   </p>
<a id="page5"/>
<p>Last</p>
</body>
</html>`

func texts(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func TestUnits(t *testing.T) {
	d, err := Parse([]byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := texts(d.Units())
	want := []string{"Hello", "World again", "Last"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("units = %q, want %q", got, want)
	}
}

func TestApplyAndRender(t *testing.T) {
	d, err := Parse([]byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	units := d.Units()
	if err := d.Apply(units, []string{"Ola", "World again", "Fim"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out, err := d.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("prolog lost: %.60q", s)
	}
	for _, want := range []string{
		"<p>\n  Ola\n</p>",
		"<p>42</p>",
		`<p class="x">World <em>again</em></p>`,
		"<p>Fim</p>",
		`<a id="page5"></a>`,
		"<h1>Title</h1>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got := texts(again.Units()); strings.Join(got, "|") != "Ola|World again|Fim" {
		t.Errorf("reparsed units = %q", got)
	}
}

func TestRenderIdempotent(t *testing.T) {
	render := func() string {
		d, err := Parse([]byte(page))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := d.Apply(d.Units(), []string{"A", "B", "C"}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		out, err := d.Render()
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		return string(out)
	}
	if a, b := render(), render(); a != b {
		t.Errorf("renders differ:\n%s\n---\n%s", a, b)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed":   `<html><body><p>Hello</body></html>`,
		"mismatched": `<html><body><p>Hi</div></body></html>`,
		"empty":      ``,
		"text only":  `just words`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			var ee *ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("err = %v, want *ExtractionError", err)
			}
		})
	}
}

func TestParseHTMLEntities(t *testing.T) {
	d, err := Parse([]byte(`<html><body><p>a&nbsp;b</p></body></html>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if units := d.Units(); len(units) != 1 || units[0].Text != "a\u00a0b" {
		t.Errorf("units = %+v", units)
	}
}

const htmlPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>t</title></head>
<body><p>Hello<br>there</p><p>Bye</p></body></html>`

func TestParseHTML(t *testing.T) {
	if _, err := Parse([]byte(htmlPage)); err == nil {
		t.Fatal("Parse accepted HTML that is not well-formed XML")
	}

	d, err := ParseHTML([]byte(htmlPage))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	units := d.Units()
	if got := texts(units); strings.Join(got, "|") != "Hellothere|Bye" {
		t.Fatalf("units = %q", got)
	}
	if err := d.Apply(units, []string{"Hello there", "Tchau"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out, err := d.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "<p>Hello there</p>", "<p>Tchau</p>", `<meta charset="utf-8"/>`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseMedia(t *testing.T) {
	if _, err := ParseMedia([]byte(htmlPage), "text/html"); err != nil {
		t.Errorf("text/html: %v", err)
	}
	var ee *ExtractionError
	if _, err := ParseMedia([]byte(htmlPage), "application/xhtml+xml"); !errors.As(err, &ee) {
		t.Errorf("application/xhtml+xml: err = %v, want *ExtractionError", err)
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	d, err := Parse([]byte(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := d.Apply(d.Units(), []string{"one"}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if err := d.SetText(99, "x"); err == nil {
		t.Error("expected error for out of range handle")
	}
}

func TestTranslatable(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"42", false},
		{"٣", false},
		{"4 2", true},
		{"Chapter 1", true},
		{"1.", true},
	}
	for _, tc := range cases {
		if got := Translatable(tc.in); got != tc.want {
			t.Errorf("Translatable(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestExpandEmpty(t *testing.T) {
	in := `<a id="x"/><br/><img src="a.png" /><span class="s" />`
	want := `<a id="x"></a><br/><img src="a.png" /><span class="s"></span>`
	if got := string(expandEmpty([]byte(in))); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
