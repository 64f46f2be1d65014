package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/credipos/engine/internal/domain"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "credipos-cli",
		Short: "CrediPOS CLI tool",
		Long:  `A command line interface for the CrediPOS financing engine.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CrediPOS API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(loanCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Amortization schedule operations",
	}
	cmd.AddCommand(schedulePreviewCmd())
	return cmd
}

// schedulePreviewCmd computes a schedule locally without touching the
// API, so cashiers can quote terms before the sale is closed.
func schedulePreviewCmd() *cobra.Command {
	var (
		principal string
		down      string
		rate      string
		cadence   string
		term      int
		start     string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview an amortization schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(principal)
			if err != nil {
				return fmt.Errorf("invalid --principal: %w", err)
			}
			d, err := decimal.NewFromString(down)
			if err != nil {
				return fmt.Errorf("invalid --down: %w", err)
			}
			r, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}

			startDate := time.Now()
			if start != "" {
				startDate, err = time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}

			installments, err := domain.GenerateSchedule(domain.ScheduleInput{
				StartDate:   startDate,
				Principal:   domain.RoundCent(p.Sub(d)),
				MonthlyRate: r,
				Cadence:     domain.Cadence(cadence),
				Term:        term,
			})
			if err != nil {
				return err
			}

			printSchedule(cmd.OutOrStdout(), installments)
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Sale total")
	cmd.Flags().StringVar(&down, "down", "0", "Down payment")
	cmd.Flags().StringVar(&rate, "rate", "", "Monthly interest rate, e.g. 0.05")
	cmd.Flags().StringVar(&cadence, "cadence", "monthly", "Payment cadence: weekly, biweekly or monthly")
	cmd.Flags().IntVar(&term, "term", 0, "Number of installments")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("rate")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

func printSchedule(w io.Writer, installments []*domain.Installment) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDUE\tPAYMENT\tINTEREST\tPRINCIPAL\tBALANCE")

	totalInterest := decimal.Zero
	balance := decimal.Zero
	for _, inst := range installments {
		balance = balance.Add(inst.Principal)
	}

	for _, inst := range installments {
		balance = balance.Sub(inst.Principal)
		totalInterest = totalInterest.Add(inst.Interest)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			inst.Sequence,
			inst.DueDate.Format("2006-01-02"),
			inst.Payment.StringFixed(2),
			inst.Interest.StringFixed(2),
			inst.Principal.StringFixed(2),
			balance.StringFixed(2),
		)
	}

	tw.Flush()
	fmt.Fprintf(w, "\nTotal interest: %s\n", totalInterest.StringFixed(2))
}

func loanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Loan operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a loan with its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/loans/" + args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "outstanding <id>",
		Short: "Show the outstanding balance of a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/loans/" + args[0] + "/outstanding")
		},
	})

	return cmd
}

func reportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reporting operations",
	}

	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio rollup for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reports/portfolio"
			if from != "" && to != "" {
				path += "?from=" + from + "&to=" + to
			}
			return getJSON(path)
		},
	}
	portfolioCmd.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD)")
	portfolioCmd.Flags().StringVar(&to, "to", "", "Period end, exclusive (YYYY-MM-DD)")
	cmd.AddCommand(portfolioCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delinquent",
		Short: "List delinquent loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/reports/delinquent")
		},
	})

	return cmd
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(pretty)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
