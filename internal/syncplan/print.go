package syncplan

import (
	"github.com/memcli/mem/internal/output"
)

// PrintPlan writes a human readable preview of the plan, used by
// sync --dry-run.
func PrintPlan(p *output.Printer, plan *Plan) {
	p.Header("Sync preview (dry-run)")
	p.Rule(60)

	if !plan.HasChanges() {
		p.Println("Everything is in sync. No changes needed.")
		return
	}

	section := func(title string, actions []Action, line func(Action) string) {
		if len(actions) == 0 {
			return
		}
		p.Println()
		p.Println(title)
		for _, a := range actions {
			p.Print("   %s\n", line(a))
		}
	}

	section("Will create on GitHub:", plan.OutboundCreates, func(a Action) string {
		return "+ spec " + a.SpecSlug + ": " + a.Title
	})
	section("Will update on GitHub:", plan.OutboundUpdates, func(a Action) string {
		return "~ " + a.Description
	})
	section("Will create locally:", plan.InboundCreates, func(a Action) string {
		return "+ " + a.Description
	})
	section("Will update locally:", plan.InboundUpdates, func(a Action) string {
		return "~ " + a.Description
	})
	section("Will sync status labels:", plan.StatusSyncs, func(a Action) string {
		return "~ " + a.Description
	})

	if len(plan.TodosToCreate) > 0 {
		p.Println()
		p.Println("Will create todos:")
		for _, t := range plan.TodosToCreate {
			title := t.Title
			if len(title) > 50 {
				title = title[:50] + "..."
			}
			p.Print("   + %q\n", title)
		}
	}

	if len(plan.SpecsToComplete) > 0 {
		p.Println()
		p.Println("Will move to completed (PR merged):")
		for _, slug := range plan.SpecsToComplete {
			p.Print("   > %s\n", slug)
		}
	}

	if len(plan.Conflicts) > 0 {
		p.Println()
		p.Println("Conflicts (require manual resolution):")
		for _, a := range plan.Conflicts {
			p.Print("   ! spec %q / issue #%d: %s\n", a.SpecSlug, a.IssueNumber, a.Title)
		}
		p.Println("   Both the local file and the GitHub issue changed since last sync.")
		p.Println("   Resolve by editing the local file, then run sync again.")
	}

	p.Println()
	p.Rule(60)
	p.Print("Total actions: %d\n", plan.TotalActions())
	if len(plan.Conflicts) > 0 {
		p.Print("Conflicts: %d (will be skipped)\n", len(plan.Conflicts))
	}
	p.Println("Run without --dry-run to apply these changes.")
}
