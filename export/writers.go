package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// writerFunc serializes rewritten output to one destination format.
type writerFunc func(w io.Writer, output string) error

var writers = map[string]writerFunc{
	"txt":  writeText,
	"md":   writeText,
	"json": writeJSON,
	"csv":  writeCSV,
	"xlsx": writeXLSX,
	"docx": writeDOCX,
}

func writeText(w io.Writer, output string) error {
	_, err := io.WriteString(w, output)
	return err
}

// writeJSON re-indents the output when it already is valid JSON, keeping
// key order and number representation intact. Anything else is wrapped in
// an object under the fallbackColumn key so the download is always valid
// JSON.
func writeJSON(w io.Writer, output string) error {
	text := stripFence(strings.TrimSpace(output))
	if json.Valid([]byte(text)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(text), "", "  "); err == nil {
			buf.WriteByte('\n')
			_, err := w.Write(buf.Bytes())
			return err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{fallbackColumn: output})
}

// writeCSV emits a semicolon-separated table with a UTF-8 BOM so
// spreadsheet applications pick up the encoding and the delimiter.
func writeCSV(w io.Writer, output string) error {
	if _, err := io.WriteString(w, "\uFEFF"); err != nil {
		return err
	}
	t := Rows(output)
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sheetName is the single worksheet holding exported rows.
const sheetName = "AI_Output"

func writeXLSX(w io.Writer, output string) error {
	t := Rows(output)
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A1", &t.Columns); err != nil {
		return err
	}
	for i := range t.Rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, start, &t.Rows[i]); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// OOXML part bodies for the minimal DOCX package: a content-types
// manifest, a package relationship pointing at the document part, and the
// document itself. Word processors need nothing more to open the file.
const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// writeDOCX builds a ZIP-based OOXML document with one paragraph per
// output line.
func writeDOCX(w io.Writer, output string) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", docxDocument(output)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return err
		}
	}
	return zw.Close()
}

func docxDocument(output string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		b.WriteString(xmlEscaper.Replace(line))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}
