package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Dan9191/finhealth-service/internal/healthscore"
	"github.com/Dan9191/finhealth-service/internal/integrations/statement"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/Dan9191/finhealth-service/internal/report"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scoreOptions are the resolved inputs of the score command
type scoreOptions struct {
	Income          string
	Savings         string
	Expenses        string
	Debt            string
	CreditScore     string
	NetWorthGrowth  string
	BudgetAdherence string
	Statements      []string
	JSON            bool
	AsOf            string
}

func scoreCmd(v *viper.Viper, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the health score",
		Long: `Compute the financial health score for a profile.

Amounts are monthly figures. Statements (XML, OFX or QFX) supply the
transactions used for net-worth growth over the trailing six months.

Examples:
  healthscore score --income 4150 --savings 20750 --expenses 2900
  healthscore score --income 5000 --debt 600 --statement jan.ofx --statement feb.ofx --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := scoreOptions{
				Income:          v.GetString("score.income"),
				Savings:         v.GetString("score.savings"),
				Expenses:        v.GetString("score.expenses"),
				Debt:            v.GetString("score.debt"),
				CreditScore:     v.GetString("score.credit_score"),
				NetWorthGrowth:  v.GetString("score.net_worth_growth"),
				BudgetAdherence: v.GetString("score.budget_adherence"),
				Statements:      v.GetStringSlice("score.statement"),
				JSON:            v.GetBool("score.json"),
				AsOf:            v.GetString("score.as_of"),
			}
			return runScore(opts, cmd.OutOrStdout(), log)
		},
	}

	flags := cmd.Flags()
	flags.String("income", "0", "monthly income")
	flags.String("savings", "0", "current savings")
	flags.String("expenses", "0", "target monthly expenses")
	flags.String("debt", "0", "monthly debt payments")
	flags.String("credit-score", "", "credit score (optional)")
	flags.String("net-worth-growth", "", "net worth growth in percent (optional, overrides statements)")
	flags.String("budget-adherence", "", "budget adherence in percent (optional)")
	flags.StringSlice("statement", nil, "statement file to load transactions from (repeatable)")
	flags.Bool("json", false, "print the result as JSON")
	flags.String("as-of", "", "evaluate as of this date (YYYY-MM-DD, default today)")

	for key, flag := range map[string]string{
		"score.income":           "income",
		"score.savings":          "savings",
		"score.expenses":         "expenses",
		"score.debt":             "debt",
		"score.credit_score":     "credit-score",
		"score.net_worth_growth": "net-worth-growth",
		"score.budget_adherence": "budget-adherence",
		"score.statement":        "statement",
		"score.json":             "json",
		"score.as_of":            "as-of",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func runScore(opts scoreOptions, out io.Writer, log *logrus.Logger) error {
	profile, err := buildProfile(opts)
	if err != nil {
		return err
	}

	now := time.Now()
	if opts.AsOf != "" {
		asOf, err := time.Parse(statement.DateLayout, opts.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: %w", opts.AsOf, err)
		}
		// end of day so transactions dated on as-of are inside the window
		now = asOf.Add(24*time.Hour - time.Nanosecond)
	}

	parser := statement.NewParser(log)
	var txs []models.Transaction
	for _, path := range opts.Statements {
		loaded, err := loadStatement(parser, path)
		if err != nil {
			return err
		}
		txs = append(txs, loaded...)
	}

	engine := healthscore.NewEngine(healthscore.WithClock(func() time.Time { return now }))
	result, err := engine.ComputeScore(profile, txs)
	if err != nil {
		log.WithError(err).Warn("Health score computation failed")
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err = fmt.Fprintln(out, report.Render(result))
	return err
}

func loadStatement(parser *statement.Parser, path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer f.Close()

	txs, err := parser.Parse(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return txs, nil
}

func buildProfile(opts scoreOptions) (models.FinancialProfile, error) {
	var (
		p   models.FinancialProfile
		err error
	)
	if p.MonthlyIncome, err = parseAmount("income", opts.Income); err != nil {
		return p, err
	}
	if p.CurrentSavings, err = parseAmount("savings", opts.Savings); err != nil {
		return p, err
	}
	if p.TargetExpenses, err = parseAmount("expenses", opts.Expenses); err != nil {
		return p, err
	}
	if p.MonthlyDebt, err = parseAmount("debt", opts.Debt); err != nil {
		return p, err
	}

	if opts.CreditScore != "" {
		d, err := parseAmount("credit-score", opts.CreditScore)
		if err != nil {
			return p, err
		}
		if !models.CreditScoreInRange(d) {
			return p, fmt.Errorf("invalid --credit-score %q: must be between 0 and %d", opts.CreditScore, models.MaxCreditScore)
		}
		score := int(d.Round(0).IntPart())
		p.CreditScore = &score
	}
	if opts.NetWorthGrowth != "" {
		d, err := parseAmount("net-worth-growth", opts.NetWorthGrowth)
		if err != nil {
			return p, err
		}
		p.NetWorthGrowth = &d
	}
	if opts.BudgetAdherence != "" {
		d, err := parseAmount("budget-adherence", opts.BudgetAdherence)
		if err != nil {
			return p, err
		}
		p.BudgetAdherence = &d
	}
	return p, nil
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}
