package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/cartd/internal/cartview"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(tuiCmd)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	Long: `Show the saved cart with unit prices, quantities and the total.

Examples:
  cart show
  cart show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cleanup, err := openCart(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return printCart(cmd, reg, reg.View().Render())
	},
}

var addCmd = &cobra.Command{
	Use:   "add <item-id>",
	Short: "Add one unit of a catalog item",
	Long: `Add one unit of a catalog item. Adding an item already in the cart
increases its quantity. Unknown ids leave the cart unchanged.

Examples:
  # Add a bottle of Herbal Tonic
  cart add 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, cartview.Intent{Action: cartview.ActionAdd, ItemID: parseID(args[0])})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <item-id>",
	Aliases: []string{"rm"},
	Short:   "Remove an item from the cart",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, cartview.Intent{Action: cartview.ActionRemove, ItemID: parseID(args[0])})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <item-id> <quantity>",
	Short: "Set the quantity of an item in the cart",
	Long: `Set the quantity of an item already in the cart.

The quantity is read like a form field: leading digits count and anything
below 1 becomes 1. Items not in the cart are left alone.

Examples:
  cart set 2 3
  cart set 2 0     # same as 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, cartview.Intent{
			Action:   cartview.ActionSetQuantity,
			ItemID:   parseID(args[0]),
			Quantity: args[1],
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(cmd, cartview.Intent{Action: cartview.ActionClear})
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the order text for the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cleanup, err := openCart(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		manifest := reg.View().Manifest()
		if outputJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]string{"manifest": manifest})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), manifest)
		return err
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the products that can be added",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cleanup, err := openCart(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		items := reg.View().CatalogItems()
		currency := reg.Store().Currency()
		if outputJSON {
			return writeJSON(cmd.OutOrStdout(), struct {
				Currency string         `json:"currency"`
				Items    []catalog.Item `json:"items"`
			}{currency, items})
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tDESCRIPTION")
		for _, item := range items {
			fmt.Fprintf(w, "%d\t%s\t%s%d\t%s\n", item.ID, item.Name, currency, item.UnitPrice, item.Description)
		}
		return w.Flush()
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the catalog and edit the cart interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, cleanup, err := openCart(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		p := tea.NewProgram(
			cartview.NewModel(cmd.Context(), reg.View()),
			tea.WithContext(cmd.Context()),
			tea.WithAltScreen(),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	},
}

// parseID maps non-numeric input to 0, which no catalog item uses.
func parseID(s string) int {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return id
}
