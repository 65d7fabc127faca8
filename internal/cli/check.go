package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

var checkCmd = &cobra.Command{
	Use:   "check [commit-range | -]",
	Short: "Classify a diff of spec markdown exports (non-interactive)",
	Long: `Classify the changes in a unified diff of spec markdown exports and
decide whether they require a parser rebuild. Useful for CI when spec
exports are tracked in git.

By default the working tree is compared with HEAD. Pass a commit range to
check history, "-" to read a diff from stdin, or --patch to read a file.

Exit codes:
  0 - documentation-only changes, or none
  2 - rebuild required`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("patch", "", "read the diff from a file")
	checkCmd.Flags().StringSlice("path", nil, "limit git diffs to these paths")
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
}

func runCheck(cmd *cobra.Command, args []string) error {
	raw, err := getDiff(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(raw) == "" {
		fmt.Fprintln(out, "No changes to check.")
		return nil
	}

	ps, err := diff.ParsePatch(raw)
	if err != nil {
		return err
	}
	if len(ps.Files) == 0 {
		fmt.Fprintln(out, "No changes to check.")
		return nil
	}

	changes := specdiff.Classify(ps.Deltas())
	decision := specdiff.Decide(changes, nil, nil)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		err = outputJSON(out, ps, changes, decision)
	case "markdown":
		err = outputMarkdown(out, ps, changes, decision)
	default:
		err = outputText(out, ps, changes, decision)
	}
	if err != nil {
		return err
	}

	if decision.Required {
		return &exitError{code: 2}
	}
	return nil
}

func outputText(w io.Writer, ps *diff.PatchSet, changes []specdiff.BlockChange, dec specdiff.RebuildDecision) error {
	nFiles, added, deleted := ps.Stats()
	fmt.Fprintf(w, "%d file(s) changed, +%d -%d\n", nFiles, added, deleted)
	fmt.Fprintf(w, "Rebuild required: %s\n", yesNo(dec.Required))
	fmt.Fprintf(w, "Reason: %s\n\n", dec.Reason)

	if len(changes) == 0 {
		fmt.Fprintln(w, "No changes found.")
		return nil
	}
	for _, c := range changes {
		fmt.Fprintf(w, "  %s [%s] %s: %s\n", impactIcon(c.ImpactLevel), c.ImpactLevel, location(c), c.Reasoning)
	}
	return nil
}

func outputJSON(w io.Writer, ps *diff.PatchSet, changes []specdiff.BlockChange, dec specdiff.RebuildDecision) error {
	type jsonOutput struct {
		Files    int                      `json:"files"`
		Added    int                      `json:"added"`
		Deleted  int                      `json:"deleted"`
		Decision specdiff.RebuildDecision `json:"decision"`
		Changes  []specdiff.BlockChange   `json:"changes"`
	}

	out := jsonOutput{Decision: dec, Changes: changes}
	out.Files, out.Added, out.Deleted = ps.Stats()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputMarkdown(w io.Writer, ps *diff.PatchSet, changes []specdiff.BlockChange, dec specdiff.RebuildDecision) error {
	nFiles, added, deleted := ps.Stats()
	fmt.Fprintf(w, "## Spec Change Check\n\n")
	fmt.Fprintf(w, "**%d file(s)** changed, **+%d** insertions, **-%d** deletions\n\n", nFiles, added, deleted)
	fmt.Fprintf(w, "**Rebuild required:** %s | **Changes:** %d\n\n", yesNo(dec.Required), len(changes))
	fmt.Fprintf(w, "%s\n\n", dec.Reason)

	if len(changes) == 0 {
		return nil
	}
	fmt.Fprintln(w, "| Impact | Change | Location | Reasoning |")
	fmt.Fprintln(w, "|--------|--------|----------|-----------|")
	for _, c := range changes {
		fmt.Fprintf(w, "| %s | %s | `%s` | %s |\n", c.ImpactLevel, c.ChangeType, location(c), c.Reasoning)
	}
	return nil
}

func location(c specdiff.BlockChange) string {
	cit := c.NewCitation
	if cit == nil {
		cit = c.OldCitation
	}
	if cit == nil {
		return "?"
	}
	return fmt.Sprintf("%s (page %d)", cit.CitationID, cit.Page)
}

func impactIcon(l model.ImpactLevel) string {
	switch l {
	case model.ImpactHigh:
		return "!!"
	case model.ImpactMedium:
		return "! "
	default:
		return "- "
	}
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func getDiff(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("patch"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading patch: %w", err)
		}
		return string(data), nil
	}

	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	repoDir, err := gitRepoRoot()
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	paths, _ := cmd.Flags().GetStringSlice("path")

	commitRange := "HEAD"
	if len(args) == 1 {
		commitRange = args[0]
	}
	return diff.GitDiffRange(repoDir, commitRange, paths...)
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
