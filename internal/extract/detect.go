package extract

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the coarse document type that decides the extraction route.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOCX  Kind = "docx"
	KindImage Kind = "image"
)

var pdfMagic = []byte("%PDF")

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DetectKind sniffs the document type from its leading bytes. PDFs are
// identified by the %PDF signature, DOCX by MIME sniffing. Anything else is
// treated as an image and allowed to fail downstream; there is no error path.
func DetectKind(data []byte) Kind {
	if len(data) >= 4 && bytes.Equal(data[:4], pdfMagic) {
		return KindPDF
	}
	if mimetype.Detect(data).Is(docxMIME) {
		return KindDOCX
	}
	return KindImage
}
