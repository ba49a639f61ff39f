package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/takumi/specgen/internal/cost"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/history"
	"github.com/urfave/cli/v3"
)

// HistoryListAction prints one page of past generation results.
func HistoryListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	entries, err := appCtx.Client.ListResults(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No results yet.")
		return nil
	}

	pageSize := int(cmd.Int("page-size"))
	if pageSize <= 0 {
		pageSize = appCtx.Config.Client.PageSize
	}
	view := history.NewView(entries, pageSize)
	view.SetPage(int(cmd.Int("page")))

	renderHistoryTable(view.Rows())
	fmt.Println(renderPageStrip(view.Page(), view.TotalPages()))

	return nil
}

// HistoryDeleteAction removes a stored result after confirmation.
func HistoryDeleteAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	jobID := cmd.String("id")
	if !cmd.Bool("yes") && !confirm(fmt.Sprintf("Delete result %s?", jobID)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := appCtx.Client.Delete(ctx, jobID); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", jobID)
	return nil
}

func renderHistoryTable(rows []domain.HistoryEntry) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("No", "ID", "File", "Size", "Started", "Finished", "Tokens", "Cost (USD)")

	for _, entry := range rows {
		table.Append(
			entry.SeqNumber,
			entry.ShortID(),
			entry.Filename,
			history.FormatSize(entry.Size),
			history.FormatTimestamp(entry.StartTime),
			history.FormatTimestamp(entry.EndTime),
			formatTokenTotal(entry.TokenStats),
			formatCost(entry.TokenStats, entry.Model),
		)
	}

	table.Render()
}

func formatTokenTotal(stats *domain.TokenStats) string {
	if stats == nil {
		return "-"
	}
	return history.FormatTokens(stats.TotalInputTokens + stats.TotalOutputTokens)
}

func formatCost(stats *domain.TokenStats, model string) string {
	if stats == nil || !cost.Known(model) {
		return "-"
	}
	return fmt.Sprintf("%.4f", cost.Estimate(stats, model))
}

// renderPageStrip formats the pagination footer, collapsing long page
// runs to an ellipsis and bracketing the current page.
func renderPageStrip(current, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page %d of %d:", current, total)
	for _, n := range history.PageNumbers(current, total) {
		if n == history.Ellipsis {
			b.WriteString(" ...")
			continue
		}
		if n == current {
			fmt.Fprintf(&b, " [%d]", n)
			continue
		}
		fmt.Fprintf(&b, " %d", n)
	}
	return b.String()
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
