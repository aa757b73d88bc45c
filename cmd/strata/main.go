package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/strata/internal/clients/krx"
	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/models"
	"github.com/bobmcallan/strata/internal/services/market"
)

var (
	cfgFile    string
	startDate  string
	endDate    string
	format     string
	marketName string
	verbose    bool
	topN       int
	chartOut   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Korean market sector aggregation and performance ranking",
		Long: `Strata aggregates KRX market data into comparable sector indices
and performance rankings.

Examples:
  strata groups
  strata sectors --group Technology --start 2024-01-02 --end 2024-03-29
  strata rank --market KOSDAQ --top 5 --start 2024-01-02 --end 2024-03-29
  strata compare 005930,000660 --start 2024-01-02 --end 2024-03-29`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "strata.toml", "config file path")
	rootCmd.PersistentFlags().StringVar(&startDate, "start", "", "window start date (YYYY-MM-DD, default 3 months ago)")
	rootCmd.PersistentFlags().StringVar(&endDate, "end", "", "window end date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().StringVar(&marketName, "market", "KOSPI", "market: KOSPI, KOSDAQ")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show debug logging")

	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "List configured sector groups for a market",
		RunE:  runGroups,
	}

	sectorsCmd := &cobra.Command{
		Use:   "sectors",
		Short: "Aggregate sector constituents into rebased performance indices",
		RunE:  runSectors,
	}
	sectorsCmd.Flags().String("group", "", "sector group name (see groups command)")
	sectorsCmd.Flags().String("sectors", "", "comma-separated sector index tickers (overrides --group)")
	sectorsCmd.Flags().StringVar(&chartOut, "chart", "", "write a PNG chart to this path")

	rankCmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a market's instruments by realized return",
		RunE:  runRank,
	}
	rankCmd.Flags().IntVar(&topN, "top", 10, "number of top and bottom performers")

	compareCmd := &cobra.Command{
		Use:   "compare <tickers>",
		Short: "Compare instruments on a common rebased scale",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare,
	}

	rootCmd.AddCommand(groupsCmd, sectorsCmd, rankCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newService builds the analysis service from config and flags.
func newService() (*market.Service, error) {
	config, err := common.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := common.NewLogger(level)

	provider := krx.NewClient(config.Clients.KRX.APIKey,
		krx.WithBaseURL(config.Clients.KRX.BaseURL),
		krx.WithRateLimit(config.Clients.KRX.RateLimit),
		krx.WithTimeout(config.Clients.KRX.GetTimeout()),
		krx.WithLogger(logger),
	)

	return market.NewService(provider, config.Analysis, logger), nil
}

// window resolves the analysis window from flags with defaults.
func window() (start, end time.Time, err error) {
	end = models.Day(time.Now())
	if endDate != "" {
		end, err = time.Parse(models.DateFormat, endDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date %q", endDate)
		}
	}

	start = end.AddDate(0, -3, 0)
	if startDate != "" {
		start, err = time.Parse(models.DateFormat, startDate)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date %q", startDate)
		}
	}

	if start.After(end) {
		return start, end, fmt.Errorf("start %s is after end %s", models.DateKey(start), models.DateKey(end))
	}
	return start, end, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		cancel()
	}()
	return ctx, cancel
}

// newProgressBar wires a fetch progress bar onto the service.
func newProgressBar(svc *market.Service, description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	svc.SetProgressCallback(func(done, total int) {
		bar.ChangeMax(total)
		bar.Set(done)
	})

	return bar
}

func runGroups(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}

	groups := svc.ListGroups(marketName)

	if format == "json" {
		return outputJSON(map[string]interface{}{"market": marketName, "groups": groups})
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Group"}),
	)
	for _, g := range groups {
		table.Append([]string{g})
	}
	table.Render()
	return nil
}

func runSectors(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}

	start, end, err := window()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickers, err := sectorTickers(ctx, cmd, svc)
	if err != nil {
		return err
	}

	bar := newProgressBar(svc, "Fetching")
	indices, err := svc.SectorIndices(ctx, start, end, tickers)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("sector analysis: %w", err)
	}

	if chartOut != "" {
		title := fmt.Sprintf("Sector Performance %s to %s", models.DateKey(start), models.DateKey(end))
		png, err := market.RenderIndexChart(title, indices)
		if err != nil {
			return fmt.Errorf("rendering chart: %w", err)
		}
		if err := os.WriteFile(chartOut, png, 0o644); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		fmt.Printf("Chart written to %s\n", chartOut)
	}

	records := market.PivotDated(indices)
	if format == "json" {
		return outputJSON(map[string]interface{}{
			"start": models.DateKey(start),
			"end":   models.DateKey(end),
			"data":  records,
		})
	}
	return outputRecordsTable(records)
}

// sectorTickers resolves the --sectors / --group flags to index tickers.
func sectorTickers(ctx context.Context, cmd *cobra.Command, svc *market.Service) ([]string, error) {
	if raw, _ := cmd.Flags().GetString("sectors"); raw != "" {
		var tickers []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				tickers = append(tickers, p)
			}
		}
		return tickers, nil
	}

	group, _ := cmd.Flags().GetString("group")
	if group == "" {
		return nil, fmt.Errorf("either --group or --sectors is required")
	}

	instruments, err := svc.ResolveGroup(ctx, marketName, group)
	if err != nil {
		return nil, fmt.Errorf("resolving group %q: %w", group, err)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("group %q has no instruments in %s (see groups command)", group, marketName)
	}

	tickers := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		tickers = append(tickers, inst.Ticker)
	}
	return tickers, nil
}

func runRank(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}

	start, end, err := window()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	bar := newProgressBar(svc, "Fetching")
	perf, err := svc.RankMarketPerformance(ctx, marketName, start, end, topN)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("ranking: %w", err)
	}

	if format == "json" {
		return outputJSON(perf)
	}

	fmt.Printf("%s performance %s to %s\n\n", perf.Market, models.DateKey(start), models.DateKey(end))

	fmt.Println("Top performers:")
	renderPerformanceTable(perf.Top)

	fmt.Println("\nBottom performers:")
	renderPerformanceTable(perf.Bottom)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	var tickers []string
	for _, p := range strings.Split(args[0], ",") {
		if p = strings.TrimSpace(p); p != "" {
			tickers = append(tickers, p)
		}
	}
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given")
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	start, end, err := window()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	records, err := svc.CompareInstruments(ctx, tickers, start, end)
	if err != nil {
		return fmt.Errorf("comparing: %w", err)
	}

	if format == "json" {
		return outputJSON(map[string]interface{}{
			"start": models.DateKey(start),
			"end":   models.DateKey(end),
			"data":  records,
		})
	}
	return outputRecordsTable(records)
}

func renderPerformanceTable(records []models.PerformanceRecord) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Ticker", "Name", "Change"}),
	)
	for _, r := range records {
		name := r.Name
		if len(name) > 24 {
			name = name[:24] + "..."
		}
		table.Append([]string{r.Ticker, name, fmt.Sprintf("%+.2f%%", r.PercentChange)})
	}
	table.Render()
}

// outputRecordsTable renders pivoted date records with one column per group.
func outputRecordsTable(records []models.DateRecord) error {
	if len(records) == 0 {
		fmt.Println("No data.")
		return nil
	}

	groups := make([]string, 0, len(records[0].Values))
	for name := range records[0].Values {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader(append([]string{"Date"}, groups...)),
	)
	for _, record := range records {
		row := []string{record.Date}
		for _, name := range groups {
			if v := record.Values[name]; v != nil {
				row = append(row, fmt.Sprintf("%.2f", *v))
			} else {
				row = append(row, "-")
			}
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
