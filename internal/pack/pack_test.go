package pack

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
)

func TestAssembleRoundTrip(t *testing.T) {
	res := &export.Result{
		Manifest: export.Document{Name: "imsmanifest.xml", Data: []byte("<manifest/>")},
		Items: []export.Document{
			{Name: "assessment.xml", Data: []byte("<questestinterop/>")},
		},
		Resources: []export.Resource{
			{Name: "img_abc.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		},
	}
	data, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading archive back: %v", err)
	}
	got := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		got[f.Name] = b
	}

	if string(got["imsmanifest.xml"]) != "<manifest/>" {
		t.Errorf("manifest = %q", got["imsmanifest.xml"])
	}
	if string(got["assessment.xml"]) != "<questestinterop/>" {
		t.Errorf("assessment = %q", got["assessment.xml"])
	}
	if !bytes.Equal(got["resources/img_abc.png"], res.Resources[0].Data) {
		t.Errorf("image not under resources/: %v", got)
	}
	if len(got) != 3 {
		t.Errorf("archive has %d entries, want 3", len(got))
	}
}

func TestAssembleRejectsEmptyManifest(t *testing.T) {
	if _, err := Assemble(nil); !errors.Is(err, ErrAssembly) {
		t.Errorf("nil result: err = %v", err)
	}
	if _, err := Assemble(&export.Result{}); !errors.Is(err, ErrAssembly) {
		t.Errorf("empty manifest: err = %v", err)
	}
}
