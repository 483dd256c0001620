package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/finsage/internal/apperr"
)

// buildDOCX assembles a minimal word-processor archive with one paragraph per entry.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a small, valid PDF with one text line per page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	var objects []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtract_Text(t *testing.T) {
	res, err := Extract([]byte("Spend less than you earn."), "txt")
	require.NoError(t, err)
	assert.Equal(t, "Spend less than you earn.", res.Text)
	assert.Equal(t, TypeText, res.FileType)
}

func TestExtract_TextStripsBOM(t *testing.T) {
	res, err := Extract(append([]byte{0xEF, 0xBB, 0xBF}, "budget"...), ".TXT")
	require.NoError(t, err)
	assert.Equal(t, "budget", res.Text)
}

func TestExtract_TextInvalidUTF8(t *testing.T) {
	_, err := Extract([]byte{0xff, 0xfe, 0xfd}, ".txt")
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func TestExtract_DOCXParagraphsInOrder(t *testing.T) {
	data := buildDOCX(t, "Track every expense.", "Review the budget monthly.")
	res, err := Extract(data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Track every expense.\nReview the budget monthly.\n", res.Text)
}

func TestExtract_DOCXNotZip(t *testing.T) {
	_, err := Extract([]byte("plain text pretending"), ".docx")
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func TestExtract_DOCXMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("docProps/core.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Extract(buf.Bytes(), ".docx")
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func TestExtract_PDFPagesInOrder(t *testing.T) {
	data := buildPDF(t, "Budget basics", "Emergency fund")
	res, err := Extract(data, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, 0, res.SkippedPages)

	first := strings.Index(res.Text, "Budget basics")
	second := strings.Index(res.Text, "Emergency fund")
	require.GreaterOrEqual(t, first, 0, "text = %q", res.Text)
	require.Greater(t, second, first, "text = %q", res.Text)
}

func TestExtract_PDFGarbage(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf"), ".pdf")
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := Extract([]byte("a,b,c"), ".csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)

	var uf *apperr.UnsupportedFormatError
	require.ErrorAs(t, err, &uf)
	assert.Equal(t, ".csv", uf.Extension)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Savings.TXT")
	require.NoError(t, os.WriteFile(path, []byte("Automate savings."), 0o644))

	res, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Automate savings.", res.Text)

	_, err = ExtractFile(filepath.Join(dir, "sheet.xlsx"))
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
}

func TestNormalizeTypeAndSupport(t *testing.T) {
	assert.Equal(t, ".pdf", NormalizeType("PDF"))
	assert.Equal(t, ".docx", NormalizeType(" .Docx "))
	assert.Equal(t, "", NormalizeType(""))

	assert.True(t, IsSupported("report.pdf"))
	assert.True(t, IsSupported("notes.TXT"))
	assert.False(t, IsSupported("image.png"))
	assert.Equal(t, []string{".txt", ".pdf", ".docx"}, SupportedExtensions())
}
