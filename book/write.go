package book

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const mimetypeName = "mimetype"

// Extra field ids that archive/zip writes on its own.
const (
	zip64ExtraID   = 0x0001
	extTimeExtraID = 0x5455
)

// Write serializes p as a zip container. Entries keep their original order,
// names and compression; the mimetype entry goes first, stored.
func Write(w io.Writer, p *Package) error {
	byName := make(map[string]*Item, len(p.Items))
	for _, it := range p.Items {
		if it.Name != "" {
			byName[it.Name] = it
		}
	}

	zw := zip.NewWriter(w)
	for _, e := range ordered(p.entries) {
		data := e.data
		if it, ok := byName[e.header.Name]; ok {
			data = it.Content
		}

		hdr := zip.FileHeader{
			Name:           e.header.Name,
			Comment:        e.header.Comment,
			Method:         e.header.Method,
			Modified:       e.header.Modified,
			CreatorVersion: e.header.CreatorVersion,
			ExternalAttrs:  e.header.ExternalAttrs,
			Extra:          portableExtra(e.header.Extra),
		}
		if hdr.Name == mimetypeName {
			hdr.Method = zip.Store
		}
		fw, err := zw.CreateHeader(&hdr)
		if err != nil {
			return &WriteError{Err: fmt.Errorf("%s: %w", hdr.Name, err)}
		}
		if _, err := fw.Write(data); err != nil {
			return &WriteError{Err: fmt.Errorf("%s: %w", hdr.Name, err)}
		}
	}
	if err := zw.Close(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// WriteFile writes p to a new file at path. The file is removed again if
// writing fails.
func WriteFile(path string, p *Package) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = &WriteError{Path: path, Err: cerr}
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := Write(f, p); err != nil {
		if we, ok := err.(*WriteError); ok {
			we.Path = path
		}
		return err
	}
	return nil
}

func ordered(entries []entry) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.header.Name == mimetypeName {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if e.header.Name != mimetypeName {
			out = append(out, e)
		}
	}
	return out
}

// portableExtra returns the extra fields of a read header that can be
// written back as they are: the ones archive/zip generates itself (zip64
// sizes, extended timestamp) are dropped so they do not appear twice.
func portableExtra(extra []byte) []byte {
	var out []byte
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		if 4+size > len(extra) {
			break
		}
		if id != zip64ExtraID && id != extTimeExtraID {
			out = append(out, extra[:4+size]...)
		}
		extra = extra[4+size:]
	}
	return out
}
