package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/transfermap/transfermap/internal/model"
)

// Context carries the crawl-unit attributes that every record on a result
// page shares. The page itself only contains course rows; school, subject
// and term come from the unit that requested it.
type Context struct {
	SchoolName string
	Subject    string
	Semester   string
}

// Result is the outcome of extracting one result page: zero or more raw
// records plus soft warnings for rows or columns that could not be fully
// understood. Warnings never abort the page; an unparsable document is a
// hard error instead.
type Result struct {
	Records  []model.RawRecord
	Warnings []string
}

// columnMap holds the detected column indices of the equivalency table.
// -1 means the column was not found.
type columnMap struct {
	externalClass int
	externalTitle int
	gtClass       int
	gtTitle       int
	creditHours   []int
}

// ExtractEquivalencies parses a result page into raw records. It is a
// pure function of its input: the same body and context always yield the
// same records in the same order.
//
// Behavior at the edges, per the extraction contract:
//   - An empty result set returns an empty Result, not an error
//   - Rows missing the external title carry it through as ""
//   - Rows missing either course code are skipped with a warning
//   - Only a document that cannot be parsed at all returns an error
func ExtractEquivalencies(body []byte, unit Context) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	result := &Result{Records: make([]model.RawRecord, 0)}

	table := findEquivalencyTable(doc)
	if table == nil {
		// Pages with no matches render without the result table. That is
		// an empty result set, not a failure.
		return result, nil
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return result, nil
	}

	cols := detectColumns(rows.First())
	if cols.externalClass < 0 || cols.gtClass < 0 {
		result.Warnings = append(result.Warnings,
			"could not identify course code columns; page skipped as empty")
		return result, nil
	}

	rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
		record, warn := extractRow(row, cols, unit)
		if warn != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", i+1, warn))
		}
		if record != nil {
			result.Records = append(result.Records, *record)
		}
	})

	return result, nil
}

// findEquivalencyTable locates the main data table: the first table with
// more than two rows whose header mentions class or title. The portal
// nests layout tables around the data, so position alone is not enough.
func findEquivalencyTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() <= 2 {
			return true
		}
		header := strings.ToLower(rows.First().Text())
		if strings.Contains(header, "class") || strings.Contains(header, "title") {
			found = table
			return false
		}
		return true
	})

	return found
}

// detectColumns maps header cells to record fields. The table lists the
// external course on the left and the home course on the right, so the
// first class/title headers are external and later ones are home-side.
// When the headers are ambiguous the midpoint of the row decides.
func detectColumns(headerRow *goquery.Selection) columnMap {
	cols := columnMap{externalClass: -1, externalTitle: -1, gtClass: -1, gtTitle: -1}

	headers := make([]string, 0)
	headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
	})

	for i, h := range headers {
		switch {
		case strings.Contains(h, "class") && cols.externalClass < 0:
			cols.externalClass = i
		case strings.Contains(h, "title") && cols.externalTitle < 0:
			cols.externalTitle = i
		case strings.Contains(h, "class") && cols.gtClass < 0:
			cols.gtClass = i
		case strings.Contains(h, "title") && cols.gtTitle < 0:
			cols.gtTitle = i
		case strings.Contains(h, "credit") && strings.Contains(h, "hour"):
			cols.creditHours = append(cols.creditHours, i)
		}
	}

	// Fall back to positional halves when the simple scan found only one
	// side of the table.
	if cols.externalClass < 0 || cols.gtClass < 0 {
		mid := len(headers) / 2
		for i, h := range headers {
			switch {
			case strings.Contains(h, "class") && i < mid && cols.externalClass < 0:
				cols.externalClass = i
			case strings.Contains(h, "class") && i >= mid && cols.gtClass < 0:
				cols.gtClass = i
			case strings.Contains(h, "title") && i < mid && cols.externalTitle < 0:
				cols.externalTitle = i
			case strings.Contains(h, "title") && i >= mid && cols.gtTitle < 0:
				cols.gtTitle = i
			}
		}
	}

	return cols
}

// extractRow turns one table row into a raw record. Returns a nil record
// for rows that must be skipped, with a warning when the skip indicates
// unexpected markup rather than a known placeholder.
func extractRow(row *goquery.Selection, cols columnMap, unit Context) (*model.RawRecord, string) {
	cells := make([]string, 0)
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})

	at := func(i int) string {
		if i >= 0 && i < len(cells) {
			return cells[i]
		}
		return ""
	}

	need := cols.externalClass
	if cols.gtClass > need {
		need = cols.gtClass
	}
	if len(cells) <= need {
		return nil, fmt.Sprintf("expected at least %d cells, found %d", need+1, len(cells))
	}

	externalClass := at(cols.externalClass)
	gtClass := at(cols.gtClass)

	// "ET DEPT" marks courses transferred as unassigned departmental
	// credit; those rows carry no usable home course code.
	if strings.Contains(gtClass, "ET DEPT") {
		return nil, ""
	}
	if externalClass == "" || gtClass == "" {
		return nil, ""
	}

	record := &model.RawRecord{
		SchoolName:    unit.SchoolName,
		Subject:       unit.Subject,
		Semester:      unit.Semester,
		ExternalCode:  externalClass,
		ExternalTitle: at(cols.externalTitle),
		GTCode:        gtClass,
		GTTitle:       at(cols.gtTitle),
	}

	// Credit hours come only from declared credit-hour columns. When the
	// header omits them the fields stay empty and the normalizer rejects
	// the record; defaulting here would be silent coercion.
	switch len(cols.creditHours) {
	case 0:
	case 1:
		// A single column is the home-side hours; the external side is
		// reported identically by the portal in this layout.
		record.GTCreditHours = at(cols.creditHours[0])
		record.ExternalCreditHours = record.GTCreditHours
	default:
		record.ExternalCreditHours = at(cols.creditHours[0])
		record.GTCreditHours = at(cols.creditHours[len(cols.creditHours)-1])
	}

	return record, ""
}
