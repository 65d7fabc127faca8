package inventory

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/pattern"
)

var directionKeywords = []struct {
	dir      model.Direction
	keywords []string
}{
	{model.DirectionToHost, []string{"device to", "analyzer to", "send to", "transmit to"}},
	{model.DirectionToDevice, []string{"to device", "to analyzer", "query", "request"}},
	{model.DirectionBoth, []string{"bidirectional", "both directions"}},
}

var prefixDirections = map[string]model.Direction{
	"OBS": model.DirectionToHost,
	"ORU": model.DirectionToHost,
	"QCN": model.DirectionToDevice,
	"QRY": model.DirectionToDevice,
}

// InferDirection guesses which way a message flows from the text around it,
// then from its prefix. Results go to the host unless told otherwise.
func InferDirection(text, messageID string) model.Direction {
	lower := strings.ToLower(text)
	for _, d := range directionKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.dir
			}
		}
	}
	if dir, ok := prefixDirections[pattern.MessagePrefix(messageID)]; ok {
		return dir
	}
	return model.DirectionToHost
}

// ScanMessages finds every message id in the document. Each id appears once;
// its direction comes from the first block that mentions it and later blocks
// add citations.
func ScanMessages(doc *document.Document) []MessageType {
	var out []MessageType
	index := make(map[string]int)

	for _, loc := range doc.Blocks() {
		text := loc.Block.Text()
		if text == "" {
			continue
		}
		cit := loc.Citation()
		for _, id := range pattern.MessageIDs(text) {
			if i, ok := index[id]; ok {
				if !hasCitation(out[i].Citations, cit.CitationID) {
					out[i].Citations = append(out[i].Citations, cit)
				}
				continue
			}
			index[id] = len(out)
			out = append(out, MessageType{
				MessageID: id,
				Direction: InferDirection(text, id),
				Citations: []model.Citation{cit},
			})
		}
	}
	return out
}

func hasCitation(cs []model.Citation, id string) bool {
	for _, c := range cs {
		if c.CitationID == id {
			return true
		}
	}
	return false
}

// ScanFields collects field definitions from table blocks. The first
// definition of a field id wins.
func ScanFields(doc *document.Document) []FieldSpec {
	var out []FieldSpec
	seen := make(map[string]bool)

	for _, loc := range doc.Blocks() {
		if !loc.Block.IsTable() {
			continue
		}
		for _, f := range ParseTable(loc.Block.TableText(), loc.Citation()) {
			if seen[f.FieldID] {
				continue
			}
			seen[f.FieldID] = true
			out = append(out, f)
		}
	}
	return out
}

var separatorCell = regexp.MustCompile(`^:?-+:?$`)

// ParseTable reads field rows out of a markdown table. The separator row is
// optional, and a table without a header is read as data only. Rows with no
// field id are skipped.
func ParseTable(table string, cit model.Citation) []FieldSpec {
	var lines []string
	for _, l := range strings.Split(table, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	header := splitRow(lines[0])
	rows := lines[1:]
	if _, ok := fieldIDFromCells(header); ok {
		header, rows = nil, lines
	}
	if len(rows) > 0 && isSeparator(splitRow(rows[0])) {
		rows = rows[1:]
	}

	var out []FieldSpec
	for _, row := range rows {
		cells := splitRow(row)
		id, ok := fieldIDFromCells(cells)
		if !ok {
			continue
		}
		f := FieldSpec{FieldID: id, Citation: cit}
		for i, col := range header {
			if i < len(cells) {
				assignColumn(&f, strings.ToLower(col), cells[i])
			}
		}
		out = append(out, f)
	}
	return out
}

func assignColumn(f *FieldSpec, col, value string) {
	switch {
	case strings.Contains(col, "name"):
		f.Name = value
	case strings.Contains(col, "type"):
		f.DataType = value
	case strings.Contains(col, "opt"):
		f.Optionality = value
	case strings.Contains(col, "card"):
		f.Cardinality = value
	case strings.Contains(col, "len"):
		f.Length = value
	case strings.Contains(col, "desc"):
		f.Description = value
	}
}

func splitRow(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparator(cells []string) bool {
	n := 0
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCell.MatchString(c) {
			return false
		}
		n++
	}
	return n > 0
}

func fieldIDFromCells(cells []string) (string, bool) {
	for _, c := range cells {
		if id, ok := pattern.CanonicalFieldID(c); ok {
			return id, true
		}
	}
	return "", false
}
