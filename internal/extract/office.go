package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shakinm/xlsReader/xls"

	glerrors "github.com/IgorArodrigues/Gladys-IA/internal/errors"
)

// extractDOCX reads word/document.xml from the OOXML archive and linearizes
// runs into paragraphs. The title comes from docProps/core.xml when set.
func (e *Extractor) extractDOCX(data []byte, path string) (*Result, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	docFile := findZipFile(archive, "word/document.xml")
	if docFile == nil {
		return nil, glerrors.ExtractionError(path, fmt.Errorf("word/document.xml not found"))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}
	defer func() { _ = rc.Close() }()

	text, err := wordMLToText(rc)
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	title := ""
	if coreFile := findZipFile(archive, "docProps/core.xml"); coreFile != nil {
		if crc, err := coreFile.Open(); err == nil {
			title = coreTitle(crc)
			_ = crc.Close()
		}
	}

	return &Result{
		Text:     CleanText(text),
		Title:    title,
		Metadata: map[string]string{"type": "docx"},
	}, nil
}

// wordMLToText walks WordprocessingML tokens: w:t runs become text,
// w:tab and w:br become whitespace, paragraph ends become newlines.
func wordMLToText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}

// coreTitle pulls dc:title out of an OOXML core properties stream.
func coreTitle(r io.Reader) string {
	decoder := xml.NewDecoder(r)
	inTitle := false
	var title strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "title" {
				inTitle = true
			}
		case xml.EndElement:
			if t.Name.Local == "title" {
				return strings.TrimSpace(title.String())
			}
		case xml.CharData:
			if inTitle {
				title.Write(t)
			}
		}
	}
	return ""
}

type xlsxWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xlsxSharedStrings struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type xlsxWorksheet struct {
	SheetData struct {
		Rows []struct {
			Cells []xlsxCell `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		T string `xml:"t"`
	} `xml:"is"`
}

// extractXLSX reads the OOXML spreadsheet archive directly: shared strings,
// sheet names from the workbook, then each worksheet's cells. Cells are
// emitted as "Sheet-row,col: value" lines so chunk text keeps its origin.
func (e *Extractor) extractXLSX(data []byte, path string) (*Result, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	shared := loadSharedStrings(archive)
	names := loadSheetNames(archive)

	sheetFiles := make([]*zip.File, 0, 4)
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles = append(sheetFiles, f)
		}
	}
	// Archive order is not guaranteed; sheetN.xml files are numbered.
	sort.Slice(sheetFiles, func(i, j int) bool {
		return sheetFiles[i].Name < sheetFiles[j].Name
	})

	var sb strings.Builder
	for idx, f := range sheetFiles {
		sheetName := fmt.Sprintf("Sheet%d", idx+1)
		if idx < len(names) {
			sheetName = names[idx]
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			continue
		}

		var ws xlsxWorksheet
		if err := xml.Unmarshal(raw, &ws); err != nil {
			continue
		}

		for rowIdx, row := range ws.SheetData.Rows {
			for colIdx, cell := range row.Cells {
				val := cellValue(cell, shared)
				if val == "" {
					continue
				}
				rowNum, colNum := cellPosition(cell.Ref, rowIdx+1, colIdx+1)
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				fmt.Fprintf(&sb, "%s-%d,%d: %s", sheetName, rowNum, colNum, val)
			}
		}
	}

	text := CleanText(sb.String())
	return &Result{
		Text: text,
		Metadata: map[string]string{
			"type":        "xlsx",
			"sheet_count": fmt.Sprintf("%d", len(sheetFiles)),
		},
	}, nil
}

func loadSharedStrings(archive *zip.Reader) []string {
	f := findZipFile(archive, "xl/sharedStrings.xml")
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}

	var sst xlsxSharedStrings
	if err := xml.Unmarshal(raw, &sst); err != nil {
		return nil
	}

	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.T != "" {
			strs[i] = item.T
			continue
		}
		var parts []string
		for _, run := range item.Runs {
			parts = append(parts, run.T)
		}
		strs[i] = strings.Join(parts, "")
	}
	return strs
}

func loadSheetNames(archive *zip.Reader) []string {
	f := findZipFile(archive, "xl/workbook.xml")
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}

	var wb xlsxWorkbook
	if err := xml.Unmarshal(raw, &wb); err != nil {
		return nil
	}

	names := make([]string, len(wb.Sheets.Sheet))
	for i, s := range wb.Sheets.Sheet {
		names[i] = s.Name
	}
	return names
}

func cellValue(cell xlsxCell, shared []string) string {
	switch cell.Type {
	case "s":
		var idx int
		if _, err := fmt.Sscanf(cell.Value, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
			return strings.TrimSpace(shared[idx])
		}
		return ""
	case "inlineStr":
		return strings.TrimSpace(cell.Inline.T)
	default:
		return strings.TrimSpace(cell.Value)
	}
}

// cellPosition converts an A1-style reference to 1-based row and column,
// falling back to the positional indexes when the reference is absent.
func cellPosition(ref string, fallbackRow, fallbackCol int) (row, col int) {
	if ref == "" {
		return fallbackRow, fallbackCol
	}

	col = 0
	i := 0
	for ; i < len(ref); i++ {
		c := ref[i]
		if c < 'A' || c > 'Z' {
			break
		}
		col = col*26 + int(c-'A'+1)
	}
	row = 0
	for ; i < len(ref); i++ {
		c := ref[i]
		if c < '0' || c > '9' {
			break
		}
		row = row*10 + int(c-'0')
	}

	if row == 0 || col == 0 {
		return fallbackRow, fallbackCol
	}
	return row, col
}

// extractXLS handles legacy BIFF workbooks via xlsReader. The library can
// panic on corrupt input, so the whole parse runs under recover.
func (e *Extractor) extractXLS(data []byte, path string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = glerrors.ExtractionError(path, fmt.Errorf("xls parse panic: %v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, glerrors.ExtractionError(path, err)
	}

	var sb strings.Builder
	numSheets := wb.GetNumberSheets()
	for i := 0; i < numSheets; i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			continue
		}
		sheetName := sheet.GetName()
		numRows := sheet.GetNumberRows()
		for rowIdx := 0; rowIdx < numRows; rowIdx++ {
			row, err := sheet.GetRow(rowIdx)
			if err != nil || row == nil {
				continue
			}
			for colIdx, cell := range row.GetCols() {
				val := strings.TrimSpace(cell.GetString())
				if val == "" {
					continue
				}
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				fmt.Fprintf(&sb, "%s-%d,%d: %s", sheetName, rowIdx+1, colIdx+1, val)
			}
		}
	}

	return &Result{
		Text: CleanText(sb.String()),
		Metadata: map[string]string{
			"type":        "xls",
			"sheet_count": fmt.Sprintf("%d", numSheets),
		},
	}, nil
}

func findZipFile(archive *zip.Reader, name string) *zip.File {
	for _, f := range archive.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
