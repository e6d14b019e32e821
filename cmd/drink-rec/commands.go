package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mcp-drink-rec/internal/dataset"
	"mcp-drink-rec/internal/models"
	"mcp-drink-rec/internal/recommend"
	"mcp-drink-rec/internal/server"
	"mcp-drink-rec/internal/storage"
)

func recommendCmd(g *globalFlags) *cobra.Command {
	var (
		raw    = make(map[recommend.Attribute]*string)
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend up to five drinks for the given levels",
		Example: `  drink-rec recommend --catalog starbucks.csv --caffeine Zero --sugars Low
  drink-rec recommend --calories High --prep Soymilk --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[recommend.Attribute]string, len(raw))
			for attr, v := range raw {
				values[attr] = *v
			}
			prefs, err := recommend.ParsePreferences(values)
			if err != nil {
				return err
			}

			drinks, err := g.loadDrinks()
			if err != nil {
				return err
			}

			res, err := recommend.Recommend(drinks, prefs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResult(out, res)
		},
	}

	flags := []struct {
		attr  recommend.Attribute
		name  string
		usage string
	}{
		{recommend.Caffeine, "caffeine", "Caffeine level (High, Medium, Low, Zero)"},
		{recommend.Calories, "calories", "Calorie level (High, Medium, Low)"},
		{recommend.Sugars, "sugars", "Sugar level (High, Medium, Low)"},
		{recommend.Protein, "protein", "Protein level (High, Medium, Low)"},
		{recommend.TotalFat, "fat", "Total fat level (High, Medium, Low)"},
		{recommend.Prep, "prep", "Preparation, e.g. Soymilk or \"Grande Nonfat Milk\""},
	}
	for _, f := range flags {
		raw[f.attr] = cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// loadDrinks reads drinks straight from --catalog when given, otherwise from the
// database.
func (g *globalFlags) loadDrinks() ([]models.Drink, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}

	if g.catalog != "" {
		report, err := dataset.LoadFile(g.catalog)
		if err != nil {
			return nil, err
		}
		return report.Drinks, nil
	}

	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer stor.Close()

	return stor.ListDrinks(context.Background())
}

func printResult(w io.Writer, res *recommend.Result) error {
	if msg := res.Message(); msg != "" {
		fmt.Fprintln(w, msg)
	}
	if res.Empty() {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPREP\tCALORIES\tFAT (G)\tSUGARS (G)\tPROTEIN (G)\tCAFFEINE (MG)")
	for _, d := range res.Drinks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Name, d.Prep,
			number(d.Calories), number(d.TotalFatG), number(d.SugarsG),
			number(d.ProteinG), number(d.CaffeineMg))
	}
	return tw.Flush()
}

func number(v float64) string {
	if models.IsMissing(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func importCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Replace the stored catalog with a nutrition CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			path := cfg.CatalogPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no catalog given: pass a CSV path or set catalog_path")
			}

			stor, err := storage.NewSQLiteStorage(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer stor.Close()

			report, err := server.ImportCatalog(cmd.Context(), stor, path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d drinks from %d rows into %s\n",
				len(report.Drinks), report.Rows, cfg.DBPath)
			for _, skip := range report.Skipped {
				fmt.Fprintf(out, "  skipped line %d: %s\n", skip.Line, skip.Reason)
			}
			return nil
		},
	}
}

func levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Show the level vocabulary and its ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ATTRIBUTE\tLEVEL\tRANGE")
			for _, attr := range recommend.NumericAttributes {
				for _, level := range recommend.Levels(attr) {
					r, _, err := recommend.Resolve(attr, level)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", attr, level, r)
				}
			}
			return tw.Flush()
		},
	}
}
