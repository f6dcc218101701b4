package book

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

type containerXML struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Fields []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		TOC      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Open reads the EPUB at path.
func Open(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	p, err := Read(f, st.Size())
	if err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			re.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Read reads an EPUB from r.
func Read(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &ReadError{Err: err}
	}

	files := make(map[string][]byte, len(zr.File))
	entries := make([]entry, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			entries = append(entries, entry{header: f.FileHeader, data: []byte{}})
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, &ReadError{Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		files[f.Name] = data
		entries = append(entries, entry{header: f.FileHeader, data: data})
	}

	opfPath, err := rootfile(files)
	if err != nil {
		return nil, &ReadError{Err: err}
	}

	var opf opfPackage
	if err := xml.Unmarshal(files[opfPath], &opf); err != nil {
		return nil, &ReadError{Err: fmt.Errorf("parse %s: %w", opfPath, err)}
	}

	p := &Package{Metadata: Metadata{}}
	for _, f := range opf.Metadata.Fields {
		v := strings.TrimSpace(f.Value)
		if v == "" {
			continue
		}
		p.Metadata[f.XMLName.Local] = append(p.Metadata[f.XMLName.Local], v)
	}
	for _, ref := range opf.Spine.ItemRefs {
		p.Spine = append(p.Spine, ref.IDRef)
	}
	p.TOC = opf.Spine.TOC

	owned := make(map[string]bool, len(opf.Manifest.Items))
	base := path.Dir(opfPath)
	for _, mi := range opf.Manifest.Items {
		it := &Item{
			ID:         mi.ID,
			Href:       mi.Href,
			MediaType:  mi.MediaType,
			Properties: mi.Properties,
		}
		name, remote, err := resolve(base, mi.Href)
		if err != nil {
			return nil, &ReadError{Err: fmt.Errorf("manifest item %q: %w", mi.ID, err)}
		}
		if !remote {
			data, ok := files[name]
			if !ok {
				return nil, &ReadError{Err: fmt.Errorf("manifest item %q: %s not in archive", mi.ID, name)}
			}
			it.Kind = classify(mi.MediaType, mi.Properties)
			it.Name = name
			it.Content = data
		}
		if p.TOC == "" && strings.Contains(" "+mi.Properties+" ", " nav ") {
			p.TOC = mi.ID
		}
		if it.Name != "" {
			owned[it.Name] = true
		}
		p.Items = append(p.Items, it)
	}

	for i := range entries {
		if owned[entries[i].header.Name] {
			entries[i].data = nil
		}
	}
	p.entries = entries
	return p, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func rootfile(files map[string][]byte) (string, error) {
	raw, ok := files[containerPath]
	if !ok {
		return "", fmt.Errorf("missing %s", containerPath)
	}
	var c containerXML
	if err := xml.Unmarshal(raw, &c); err != nil {
		return "", fmt.Errorf("parse %s: %w", containerPath, err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath == "" {
			continue
		}
		if _, ok := files[rf.FullPath]; !ok {
			return "", fmt.Errorf("package document %s not in archive", rf.FullPath)
		}
		return rf.FullPath, nil
	}
	return "", errors.New("no rootfile in " + containerPath)
}

// resolve maps a manifest href, relative to the package document, to a zip
// entry name. Remote resources (EPUB 3 allows them for audio, video and
// fonts) have no entry and are reported as remote.
func resolve(base, href string) (name string, remote bool, err error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false, err
	}
	if u.Scheme != "" || u.Host != "" {
		return "", true, nil
	}
	return strings.TrimPrefix(path.Join(base, u.Path), "/"), false, nil
}
