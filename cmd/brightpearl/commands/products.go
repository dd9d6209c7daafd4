package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// NewProductsCommand creates the products command group.
func NewProductsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Manage products",
		Long:    "Search and view Brightpearl products and their stock availability",
	}

	cmd.AddCommand(newListCommand("products", productsSource))
	cmd.AddCommand(newSearchCommand("products", productsSource))
	cmd.AddCommand(newProductsGetCommand())
	cmd.AddCommand(newProductsFindSKUCommand())
	cmd.AddCommand(newProductsAvailabilityCommand())

	return cmd
}

func newProductsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PRODUCT_ID...",
		Short: "Get products by ID",
		Long:  "Fetch one product, or several in a single request when more than one ID is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := splitIDs(args)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			var payload brightpearl.Payload
			if len(ids) == 1 {
				payload, err = client.Products().Get(cmd.Context(), ids[0])
			} else {
				payload, err = client.Products().GetBulk(cmd.Context(), ids)
			}

			if err != nil {
				return fmt.Errorf("failed to get products: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}
}

func newProductsFindSKUCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find-sku SKU",
		Short: "Find a product by SKU",
		Long:  "Look up the first product whose SKU matches exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			record, err := client.Products().FindBySKU(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to find SKU: %w", err)
			}

			if record == nil {
				return fmt.Errorf("%w: %s", constants.ErrSKUNotFound, args[0])
			}

			return writeRecords(cmd.OutOrStdout(), []string{"productId", "SKU", "productName"}, []brightpearl.Record{record})
		},
	}
}

func newProductsAvailabilityCommand() *cobra.Command {
	var warehouse int

	cmd := &cobra.Command{
		Use:   "availability PRODUCT_ID...",
		Short: "Show stock availability",
		Long:  "Show stock availability for products, optionally for a single warehouse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := splitIDs(args)
			if err != nil {
				return err
			}

			var warehouseID *int

			if cmd.Flags().Changed("warehouse") {
				if warehouse <= 0 {
					return fmt.Errorf("%w: %d", constants.ErrInvalidWarehouseID, warehouse)
				}

				warehouseID = &warehouse
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := client.Products().GetAvailability(cmd.Context(), ids, warehouseID)
			if err != nil {
				return fmt.Errorf("failed to get availability: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}

	cmd.Flags().IntVarP(&warehouse, "warehouse", "w", 0, "restrict to this warehouse ID")

	return cmd
}
