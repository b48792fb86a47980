package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/analyzer"
	"stock-analyzer/internal/logging"
	"stock-analyzer/internal/store"
	"stock-analyzer/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		symbol    string
		portfolio float64
		riskPct   float64
	)

	cmd := &cobra.Command{
		Use:   "analyze <csv-file>",
		Short: "Analyze a CSV of daily OHLCV bars",
		Long: `Analyze reads daily bars from a CSV file (date,open,high,low,close,volume),
runs the full pipeline and prints indicators, volume profile, levels,
detected patterns, the composite signal score and a risk plan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			start := time.Now()

			bars, err := store.LoadCSV(args[0])
			if err != nil {
				return fmt.Errorf("loading bars: %w", err)
			}

			cfg := app.Config
			if portfolio > 0 {
				cfg.Risk.PortfolioValue = portfolio
			}
			if riskPct > 0 {
				cfg.Risk.RiskFraction = riskPct / 100
			}

			result, err := analyzer.Analyze(cmd.Context(), bars, cfg)
			if err != nil {
				return err
			}

			if symbol != "" && app.Store != nil {
				if err := app.Store.SaveBars(cmd.Context(), symbol, "day", bars); err != nil {
					app.Logger.Warn().Err(err).Msg("caching bars failed")
				}
			}

			name := symbol
			if name == "" {
				name = args[0]
			}
			logging.LogAnalysis(app.Logger, name, result.Bars,
				result.Score.Score, string(result.Score.Recommendation), time.Since(start))

			if out.JSONMode() {
				return out.JSON(result)
			}
			renderResult(out, name, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol name for logging and caching")
	cmd.Flags().Float64Var(&portfolio, "portfolio", 0, "portfolio value for position sizing")
	cmd.Flags().Float64Var(&riskPct, "risk", 0, "percent of portfolio risked per trade")

	return cmd
}

func renderResult(out *Output, name string, r *analyzer.Result) {
	out.Bold(fmt.Sprintf("%s: %d bars, last close %.2f", name, r.Bars, r.LastClose))
	out.Println("")

	renderSignal(out, r.Score)
	renderIndicators(out, r.Indicators)
	renderProfile(out, r)
	renderLevels(out, r)
	renderPatterns(out, r.Patterns)
	renderRisk(out, r)

	for _, w := range r.Warnings {
		out.Warning(w)
	}
}

func renderSignal(out *Output, score analysis.SignalScore) {
	label := string(score.Recommendation)
	switch score.Recommendation {
	case analysis.StrongBuy, analysis.Buy:
		label = out.ColoredString(color.FgGreen, label)
	case analysis.Sell, analysis.StrongSell:
		label = out.ColoredString(color.FgRed, label)
	}
	out.Printf("Signal: %s (score %+d)\n\n", label, score.Score)

	table := tablewriter.NewTable(out.writer,
		tablewriter.WithHeader([]string{"Rule", "Score", "Reason"}))
	for _, c := range score.Components {
		table.Append([]string{c.Rule, fmt.Sprintf("%+d", c.Contribution), c.Reason})
	}
	table.Render()
	out.Println("")
}

func renderIndicators(out *Output, indicators map[string]float64) {
	if len(indicators) == 0 {
		return
	}
	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewTable(out.writer,
		tablewriter.WithHeader([]string{"Indicator", "Value"}))
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%.2f", indicators[name])})
	}
	table.Render()
	out.Println("")
}

func renderProfile(out *Output, r *analyzer.Result) {
	p := r.Profile
	if p == nil {
		return
	}
	out.Info(fmt.Sprintf("Volume profile: POC %.2f, value area %.2f - %.2f (total volume %s)",
		p.POC, p.ValueAreaLow, p.ValueAreaHigh, utils.FormatCompact(p.TotalVolume)))
	if len(p.HighVolumeNodes) > 0 {
		out.Printf("  HVN: %s\n", joinPrices(p.HighVolumeNodes))
	}
	if len(p.LowVolumeNodes) > 0 {
		out.Printf("  LVN: %s\n", joinPrices(p.LowVolumeNodes))
	}
	if len(p.SinglePrints) > 0 {
		out.Printf("  Single prints: %s\n", joinPrices(p.SinglePrints))
	}
	out.Println("")
}

func renderLevels(out *Output, r *analyzer.Result) {
	lv := r.Levels
	if lv == nil || (len(lv.Support) == 0 && len(lv.Resistance) == 0) {
		return
	}
	table := tablewriter.NewTable(out.writer,
		tablewriter.WithHeader([]string{"Level", "Price", "Strength", "Touches"}))
	for _, l := range lv.Resistance {
		table.Append([]string{"resistance", fmt.Sprintf("%.2f", l.Price),
			fmt.Sprintf("%.1f", l.Strength), fmt.Sprintf("%d", l.TouchCount)})
	}
	for _, l := range lv.Support {
		table.Append([]string{"support", fmt.Sprintf("%.2f", l.Price),
			fmt.Sprintf("%.1f", l.Strength), fmt.Sprintf("%d", l.TouchCount)})
	}
	table.Render()
	out.Println("")
}

func renderPatterns(out *Output, patterns []analysis.PatternMatch) {
	detected := 0
	for _, p := range patterns {
		if p.Detected {
			detected++
		}
	}
	if detected == 0 {
		out.Println("Patterns: none detected")
		out.Println("")
		return
	}
	for _, p := range patterns {
		if !p.Detected {
			continue
		}
		line := fmt.Sprintf("%s (%s)", p.Name, p.Direction)
		if p.Direction == analysis.PatternBearish {
			out.Bearish("Pattern: " + line)
		} else {
			out.Bullish("Pattern: " + line)
		}
		for _, note := range p.ConfidenceNotes {
			out.Printf("  note: %s\n", note)
		}
		keys := make([]string, 0, len(p.KeyLevels))
		for k := range p.KeyLevels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Printf("  %s: %.2f\n", k, p.KeyLevels[k])
		}
	}
	out.Println("")
}

func renderRisk(out *Output, r *analyzer.Result) {
	plan := r.Risk
	if plan == nil {
		return
	}
	out.Bold("Risk plan")
	out.Printf("  Entry %.2f, stop %.2f (risk/share %.2f)\n",
		plan.Entry, plan.Stop, plan.RiskPerShare)
	for i, t := range plan.Targets {
		out.Printf("  Target %d: %.2f (%.1fR)\n", i+1, t.Price, t.RewardRisk)
	}
	out.Printf("  Position size: %s shares, capital at risk %s\n",
		utils.FormatQuantity(plan.PositionSize), utils.FormatCurrency(plan.CapitalAtRisk))
	out.Println("")
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	return strings.Join(parts, ", ")
}
