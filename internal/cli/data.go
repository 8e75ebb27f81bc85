package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/logging"
	"options-cockpit/internal/models"
	"options-cockpit/internal/risk"
	"options-cockpit/internal/store"
)

func newSavedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved strategies, portfolios and notes",
	}

	var filter store.SavedFilter
	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.Store()
			if err != nil {
				return err
			}
			filter.Kind = models.SavedKind(kind)
			items, err := st.ListSavedItems(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Dim("No saved items.")
				return nil
			}
			table := NewTable(output, "ID", "NAME", "KIND", "CREATED")
			for _, it := range items {
				table.AddRow(strconv.FormatInt(it.ID, 10), TruncateString(it.Name, 40), string(it.Kind), it.CreatedAt)
			}
			table.Render()
			return nil
		},
	}
	list.Flags().IntVar(&filter.Limit, "limit", store.DefaultListLimit, "maximum items (1..200)")
	list.Flags().IntVar(&filter.Offset, "offset", 0, "items to skip")
	list.Flags().StringVar(&kind, "kind", "", "filter by kind")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved item with its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			item, err := st.GetSavedItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			return NewOutput(cmd).JSON(item)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.DeleteSavedItem(cmd.Context(), id); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"deleted": true, "id": id})
			}
			output.Success("✓ Deleted item %d", id)
			return nil
		},
	})

	export := &cobra.Command{
		Use:   "export",
		Short: "Export all saved items as a JSON bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			bundle, err := st.ExportSavedItems(cmd.Context())
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			return writeJSON(cmd, path, bundle)
		},
	}
	export.Flags().StringP("out", "o", "", "output file (default stdout)")
	cmd.AddCommand(export)

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON bundle; items get new ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read bundle: %w", err)
			}
			var bundle models.ExportBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return errors.NewValidationError("bundle", args[0], err.Error())
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			ids, err := st.ImportSavedItems(cmd.Context(), bundle.Items)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"imported": len(ids), "new_ids": ids})
			}
			output.Success("✓ Imported %d items", len(ids))
			return nil
		},
	})

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved item",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.NewValidationError("yes", false, "pass --yes to delete all saved items")
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.ClearSavedItems(cmd.Context()); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"cleared": true})
			}
			output.Success("✓ Cleared saved items")
			return nil
		},
	}
	clearCmd.Flags().Bool("yes", false, "confirm")
	cmd.AddCommand(clearCmd)

	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Simulated trade log",
	}

	var filter store.TradeFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded trades, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.Store()
			if err != nil {
				return err
			}
			trades, err := st.GetTrades(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades recorded.")
				return nil
			}
			table := NewTable(output, "ID", "SYMBOL", "STRATEGY", "QTY", "MAX LOSS", "TIME")
			for _, t := range trades {
				table.AddRow(strconv.FormatInt(t.ID, 10), t.Symbol, t.Strategy, strconv.Itoa(t.Contracts),
					FormatPrice(t.MaxLoss), t.Timestamp)
			}
			table.Render()
			return nil
		},
	}
	list.Flags().StringVar(&filter.Symbol, "symbol", "", "filter by symbol")
	list.Flags().StringVar(&filter.Strategy, "strategy", "", "filter by strategy")
	list.Flags().IntVar(&filter.Limit, "limit", store.MaxTrades, "maximum trades")
	cmd.AddCommand(list)

	export := &cobra.Command{
		Use:   "export",
		Short: "Export the trade log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			w, closeFn, err := openOut(cmd, path)
			if err != nil {
				return err
			}
			defer closeFn()
			return st.ExportTradesCSV(cmd.Context(), w)
		},
	}
	export.Flags().StringP("out", "o", "", "output file (default stdout)")
	cmd.AddCommand(export)

	var ticket models.TradeTicket
	var short, long, credit float64
	add := &cobra.Command{
		Use:   "add",
		Short: "Validate and record a simulated trade",
		Example: `  cockpit trades add --symbol SPY --strategy bull_put_credit_spread \
      --max-loss 380 --short-strike 470 --long-strike 465 --credit 1.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			f := cmd.Flags()
			if f.Changed("short-strike") {
				ticket.ShortStrike = &short
			}
			if f.Changed("long-strike") {
				ticket.LongStrike = &long
			}
			if f.Changed("credit") {
				ticket.Credit = &credit
			}
			if err := risk.ValidateTrade(&ticket); err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			trade := &models.Trade{
				Symbol:    ticket.Symbol,
				Strategy:  ticket.Strategy,
				MaxLoss:   ticket.MaxLoss,
				Contracts: ticket.Contracts,
			}
			if err := st.LogTrade(cmd.Context(), trade); err != nil {
				return err
			}
			logging.LogTrade(app.Logger, trade.ID, trade.Symbol, trade.Strategy, trade.Contracts, trade.MaxLoss)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"status": "accepted", "trade": trade})
			}
			output.Success("✓ Trade %d accepted", trade.ID)
			return nil
		},
	}
	add.Flags().StringVar(&ticket.Symbol, "symbol", "SPY", "underlying symbol")
	add.Flags().StringVar(&ticket.Strategy, "strategy", "", "strategy name")
	add.Flags().Float64Var(&ticket.MaxLoss, "max-loss", 0, "max loss in dollars")
	add.Flags().IntVar(&ticket.Contracts, "contracts", 1, "number of contracts")
	add.Flags().Float64Var(&short, "short-strike", 0, "short put strike (spreads)")
	add.Flags().Float64Var(&long, "long-strike", 0, "long put strike (spreads)")
	add.Flags().Float64Var(&credit, "credit", 0, "credit received (spreads)")
	_ = add.MarkFlagRequired("strategy")
	cmd.AddCommand(add)

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("id", s, "must be an integer")
	}
	return id, nil
}

func openOut(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func writeJSON(cmd *cobra.Command, path string, v interface{}) error {
	w, closeFn, err := openOut(cmd, path)
	if err != nil {
		return err
	}
	defer closeFn()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
