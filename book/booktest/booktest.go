// Package booktest builds small EPUB containers for tests.
package booktest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// File is one manifest item of a test book, stored under OEBPS/.
type File struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
	Body       string
}

// XHTML wraps body in a minimal XHTML content document.
func XHTML(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>t</title></head><body>` + body + `</body></html>`
}

// Doc is a Document item holding the given paragraphs.
func Doc(id string, paragraphs ...string) File {
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	return File{ID: id, Href: id + ".xhtml", MediaType: "application/xhtml+xml", Body: XHTML(b.String())}
}

// Build returns the bytes of an EPUB holding files in manifest order, with
// every Document listed in the spine.
func Build(t testing.TB, files ...File) []byte {
	t.Helper()

	var manifest, spine strings.Builder
	for _, f := range files {
		props := ""
		if f.Properties != "" {
			props = fmt.Sprintf(` properties="%s"`, f.Properties)
		}
		fmt.Fprintf(&manifest, `<item id="%s" href="%s" media-type="%s"%s/>`, f.ID, f.Href, f.MediaType, props)
		if f.MediaType == "application/xhtml+xml" && f.Properties == "" {
			fmt.Fprintf(&spine, `<itemref idref="%s"/>`, f.ID)
		}
	}
	opf := `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:identifier id="uid">urn:uuid:test</dc:identifier>
<dc:title>Test Book</dc:title>
<dc:language>en</dc:language>
</metadata>
<manifest>` + manifest.String() + `</manifest>
<spine>` + spine.String() + `</spine>
</package>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	put := func(name string, method uint16, data string) {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	put("mimetype", zip.Store, "application/epub+zip")
	put("META-INF/container.xml", zip.Deflate, `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`)
	put("OEBPS/content.opf", zip.Deflate, opf)
	for _, f := range files {
		put("OEBPS/"+f.Href, zip.Deflate, f.Body)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteFile builds an EPUB into dir/name and returns its path.
func WriteFile(t testing.TB, dir, name string, files ...File) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Build(t, files...), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}
