package extract

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestDetectKind_PDF(t *testing.T) {
	if kind := DetectKind([]byte("%PDF-1.7\n...")); kind != KindPDF {
		t.Errorf("expected %q, got %q", KindPDF, kind)
	}
}

func TestDetectKind_Image(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if kind := DetectKind(png); kind != KindImage {
		t.Errorf("expected %q, got %q", KindImage, kind)
	}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if kind := DetectKind(jpeg); kind != KindImage {
		t.Errorf("expected %q, got %q", KindImage, kind)
	}
}

func TestDetectKind_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		f.Write([]byte("<xml/>"))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if kind := DetectKind(buf.Bytes()); kind != KindDOCX {
		t.Errorf("expected %q, got %q", KindDOCX, kind)
	}
}

func TestDetectKind_ShortData(t *testing.T) {
	// Tiny or garbage input routes to the image path and fails there.
	if kind := DetectKind([]byte{0x01}); kind != KindImage {
		t.Errorf("expected %q, got %q", KindImage, kind)
	}
}
