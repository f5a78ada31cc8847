package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// A .docx is a zip of OOXML parts; the body lives in word/document.xml
// unless [Content_Types].xml points the main part elsewhere.
const (
	docxContentTypesPath = "[Content_Types].xml"
	docxDefaultBodyPath  = "word/document.xml"
	docxBodyContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// Paragraph blocks. w:p elements carry attributes in real files and do
	// not nest. lu4p/cat is not used for docx for this reason: its pattern
	// only matches bare <w:p> tags and returns nothing for generated docs.
	docxParagraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// Text runs, with or without attributes (xml:space="preserve" etc.).
	docxRunTextRe = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	docxTabRe     = regexp.MustCompile(`<w:tab[^>]*/>`)
	docxBreakRe   = regexp.MustCompile(`<w:br[^>]*/>|<w:cr[^>]*/>`)

	// Override elements naming the main body part, either attribute order.
	docxPartFirstRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"`)
	docxTypeFirstRe = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"[^>]+PartName="([^"]+)"`)

	// Run text is raw XML character data; the five predefined entities are
	// the only escapes OOXML emits there.
	docxEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// extractDOCX extracts the body text of .docx bytes, one line per paragraph.
// Runs inside a paragraph are concatenated without separators: OOXML keeps
// spaces inside <w:t> text and a run boundary can fall mid-word, so joining
// runs with spaces would corrupt words and the chunk offsets derived from
// them. Tabs and explicit breaks become "\t" and "\n".
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	bodyPath := docxBodyPartPath(zr)
	bodyXML, err := readZipPart(zr, bodyPath)
	if err != nil {
		return "", err
	}

	paragraphs := docxParagraphRe.FindAllString(string(bodyXML), -1)
	if len(paragraphs) == 0 {
		// Attribute-free or single-element bodies; harvest runs directly.
		return docxParagraphText(string(bodyXML)), nil
	}
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if text := docxParagraphText(p); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// docxBodyPartPath resolves the main body part from [Content_Types].xml,
// falling back to the conventional path when the package omits the manifest.
func docxBodyPartPath(zr *zip.Reader) string {
	ct, err := readZipPart(zr, docxContentTypesPath)
	if err != nil {
		return docxDefaultBodyPath
	}
	for _, re := range []*regexp.Regexp{docxPartFirstRe, docxTypeFirstRe} {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultBodyPath
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: open %s: %w", name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("extract DOCX: %s not found", name)
}

// docxParagraphText flattens one paragraph's XML into text: tab and break
// elements are rewritten as runs so they keep their position among the
// real runs, then run contents are concatenated and unescaped.
func docxParagraphText(p string) string {
	p = docxTabRe.ReplaceAllString(p, "<w:t>\t</w:t>")
	p = docxBreakRe.ReplaceAllString(p, "<w:t>\n</w:t>")
	var b strings.Builder
	for _, m := range docxRunTextRe.FindAllStringSubmatch(p, -1) {
		b.WriteString(docxEntities.Replace(m[1]))
	}
	return strings.TrimSpace(b.String())
}
