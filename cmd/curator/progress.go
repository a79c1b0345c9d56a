package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// maxDiscoveries caps the findings printed under each stage line.
const maxDiscoveries = 3

// progressPrinter narrates stage progress on a terminal.
type progressPrinter struct {
	out io.Writer
}

var _ pipeline.Reporter = (*progressPrinter)(nil)

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

// Report prints one line per stage followed by its first few discoveries.
func (p *progressPrinter) Report(pr pipeline.Progress) {
	mark := green("✓")
	switch {
	case !pr.Completed:
		mark = red("✗")
	case pr.Outcome == types.OutcomeDegraded:
		mark = yellow("⚠")
	}
	step := fmt.Sprintf("[%d/%d]", pr.StepIndex, pr.TotalSteps)
	fmt.Fprintf(p.out, "%s %s %s %s\n", mark, gray(step), cyan(pr.StageLabel), gray(fmt.Sprintf("(%dms)", pr.ElapsedMs())))
	if pr.Action != "" {
		fmt.Fprintf(p.out, "    %s %s\n", gray("→"), pr.Action)
	}
	for i, d := range pr.Discoveries {
		if i == maxDiscoveries {
			fmt.Fprintf(p.out, "    %s\n", gray(fmt.Sprintf("… %d more", len(pr.Discoveries)-maxDiscoveries)))
			break
		}
		fmt.Fprintf(p.out, "    - %s\n", strings.TrimSpace(d))
	}
}

// printPlan summarizes a profile and the stages planned for it.
func printPlan(out io.Writer, strategy *types.WorkflowStrategy) {
	p := strategy.Profile
	fmt.Fprintf(out, "%s Corpus profile\n", gray("→"))
	fmt.Fprintf(out, "  Complexity: %s (score %d)\n", cyan(p.Complexity), p.ComplexityScore)
	fmt.Fprintf(out, "  Organization: %s (score %d)\n", cyan(p.OrganizationLevel), p.OrganizationScore)
	fmt.Fprintf(out, "  Files: %s  Folders: %s  Max depth: %s\n",
		cyan(p.Scale.FileCount), cyan(p.Scale.FolderCount), cyan(p.Scale.MaxDepth))
	fmt.Fprintf(out, "  Budget: %s items, depth %s, sampling %s\n",
		cyan(p.Budget.MaxItems), cyan(p.Budget.MaxDepth), cyan(fmt.Sprintf("%.2f", p.Budget.SamplingRate)))
	for _, w := range p.Warnings {
		fmt.Fprintf(out, "  %s %s\n", yellow("⚠"), w)
	}

	fmt.Fprintf(out, "\n%s Plan: %s stages, estimated %s\n", gray("→"),
		cyan(len(strategy.Stages)), cyan(strategy.EstimatedDuration.String()))
	for i, id := range strategy.Stages {
		reason := strategy.StageReasons[id]
		fmt.Fprintf(out, "  %2d. %s %s\n", i+1, id, gray(reason))
	}
	for _, r := range strategy.Rationales {
		fmt.Fprintf(out, "  %s %s\n", gray("·"), gray(r))
	}
	fmt.Fprintln(out)
}
