package diff

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/model"
)

// File is one file of a unified diff of spec markdown exports.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s → %s", f.OldName, f.NewName)
	}
	if f.IsNew {
		return f.NewName
	}
	if f.IsDeleted {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// PatchSet holds a parsed unified diff.
type PatchSet struct {
	Files []*File
	Raw   string
}

// Stats returns aggregate statistics.
func (ps *PatchSet) Stats() (files, added, deleted int) {
	files = len(ps.Files)
	for _, f := range ps.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// ParsePatch reads a unified diff.
func ParsePatch(raw string) (*PatchSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ps := &PatchSet{Raw: raw}
	for _, f := range parsed {
		pf := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}
		for _, frag := range f.TextFragments {
			pf.Fragments = append(pf.Fragments, frag)
			pf.AddedLines += int(frag.LinesAdded)
			pf.DeletedLines += int(frag.LinesDeleted)
		}
		ps.Files = append(ps.Files, pf)
	}
	return ps, nil
}

var pageHeading = regexp.MustCompile(`^#\s*Page\s+(\d+)\s*$`)

// Deltas turns each run of changed lines into a block delta. Deleted lines
// followed by added lines are a modification; a run made only of table rows
// is a table block. Pages come from the "# Page N" headings of the export,
// defaulting to page 1 when none is in view.
func (ps *PatchSet) Deltas() []Delta {
	var out []Delta
	for _, f := range ps.Files {
		if f.IsBinary {
			continue
		}
		for _, frag := range f.Fragments {
			out = append(out, fragmentDeltas(f, frag)...)
		}
	}
	return out
}

type run struct {
	deleted, added []string
	oldLine        int64
	newLine        int64
}

func fragmentDeltas(f *File, frag *gitdiff.TextFragment) []Delta {
	page := 1
	// known is set once the new side's page has been seen; a deleted heading
	// only moves the page before that.
	known := false
	if m := pageHeading.FindStringSubmatch(strings.TrimSpace(frag.Comment)); m != nil {
		page, _ = strconv.Atoi(m[1])
		known = true
	}

	var out []Delta
	var cur *run
	flush := func() {
		if cur != nil {
			out = append(out, cur.delta(f, page))
			cur = nil
		}
	}

	oldLine, newLine := frag.OldPosition, frag.NewPosition
	for _, line := range frag.Lines {
		text := strings.TrimRight(line.Line, "\n")
		switch line.Op {
		case gitdiff.OpContext:
			flush()
			if m := pageHeading.FindStringSubmatch(text); m != nil {
				page, _ = strconv.Atoi(m[1])
				known = true
			}
			oldLine++
			newLine++
		case gitdiff.OpDelete:
			if m := pageHeading.FindStringSubmatch(text); m != nil && !known {
				flush()
				page, _ = strconv.Atoi(m[1])
			}
			if cur == nil || len(cur.added) > 0 {
				flush()
				cur = &run{oldLine: oldLine, newLine: newLine}
			}
			cur.deleted = append(cur.deleted, text)
			oldLine++
		case gitdiff.OpAdd:
			if m := pageHeading.FindStringSubmatch(text); m != nil {
				flush()
				page, _ = strconv.Atoi(m[1])
				known = true
			}
			if cur == nil {
				cur = &run{oldLine: oldLine, newLine: newLine}
			}
			cur.added = append(cur.added, text)
			newLine++
		}
	}
	flush()
	return out
}

func (r *run) delta(f *File, page int) Delta {
	lines := append(append([]string(nil), r.deleted...), r.added...)
	blockType := document.BlockText
	if isTableRun(lines) {
		blockType = document.BlockTable
	}

	d := Delta{
		BlockType: blockType,
		Old:       strings.Join(r.deleted, "\n"),
		New:       strings.Join(r.added, "\n"),
	}
	if len(r.deleted) > 0 {
		d.OldCitation = patchCitation(f.OldName, r.oldLine, page, blockType)
	}
	if len(r.added) > 0 {
		d.NewCitation = patchCitation(f.NewName, r.newLine, page, blockType)
	}

	switch {
	case len(r.deleted) > 0 && len(r.added) > 0:
		d.Kind = impact.Modified
	case len(r.deleted) > 0:
		d.Kind = impact.Removed
	default:
		d.Kind = impact.Added
	}
	return d
}

func isTableRun(lines []string) bool {
	n := 0
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if !strings.HasPrefix(l, "|") {
			return false
		}
		n++
	}
	return n > 0
}

func patchCitation(name string, line int64, page int, blockType string) *model.Citation {
	return &model.Citation{
		CitationID:  fmt.Sprintf("%s:L%d", name, line),
		Page:        page,
		Source:      "patch",
		ContentType: blockType,
	}
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return string(out), nil
}

// GitDiffRange returns the diff of the given paths over a commit range such
// as "v1.2...HEAD".
func GitDiffRange(repoDir, commitRange string, paths ...string) (string, error) {
	args := []string{commitRange}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	return GitDiff(repoDir, args...)
}
