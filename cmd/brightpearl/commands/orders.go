package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/internal/export"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Manage orders",
		Long:    "Search, view and update Brightpearl orders and their notes",
	}

	cmd.AddCommand(newListCommand("orders", ordersSource))
	cmd.AddCommand(newSearchCommand("orders", ordersSource))
	cmd.AddCommand(newOrdersGetCommand())
	cmd.AddCommand(newOrdersNotesCommand())
	cmd.AddCommand(newOrdersAddNoteCommand())
	cmd.AddCommand(newOrdersSetStatusCommand())
	cmd.AddCommand(newOrdersExportCommand())

	return cmd
}

func newOrdersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORDER_ID...",
		Short: "Get orders by ID",
		Long:  "Fetch one order, or several in a single request when more than one ID is given",
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
				payload, err = client.Orders().Get(cmd.Context(), ids[0])
			} else {
				payload, err = client.Orders().GetBulk(cmd.Context(), ids)
			}

			if err != nil {
				return fmt.Errorf("failed to get orders: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}
}

func newOrdersNotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notes ORDER_ID",
		Short: "List order notes",
		Long:  "List the notes attached to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := client.Orders().ListNotes(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}
}

func newOrdersAddNoteCommand() *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "add-note ORDER_ID TEXT",
		Short: "Add a note to an order",
		Long:  "Attach a note to an order. Notes are public unless --private is set",
		Args:  cobra.ExactArgs(2), //nolint:mnd // ORDER_ID and TEXT
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			note := &brightpearl.OrderNote{Text: args[1], IsPublic: !private}

			payload, err := client.Orders().AddNote(cmd.Context(), args[0], note)
			if err != nil {
				return fmt.Errorf("failed to add note: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "hide the note from the customer")

	return cmd
}

func newOrdersSetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status ORDER_ID STATUS_ID",
		Short: "Change an order's status",
		Long:  "Patch an order's statusId",
		Args:  cobra.ExactArgs(2), //nolint:mnd // ORDER_ID and STATUS_ID
		RunE: func(cmd *cobra.Command, args []string) error {
			statusID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", constants.ErrInvalidStatusID, args[1])
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := client.Orders().UpdateStatus(cmd.Context(), args[0], statusID)
			if err != nil {
				return fmt.Errorf("failed to update order status: %w", err)
			}

			return writePayload(cmd.OutOrStdout(), payload)
		},
	}
}

func newOrdersExportCommand() *cobra.Command {
	var (
		flags   listFlags
		file    string
		natsURL string
		subject string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export orders as JSON lines or NATS messages",
		Long: `Read every page of the order search and write one JSON object per record.

Records go to stdout, to --file, or, with --nats-url, to a NATS subject.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			sink, err := openSink(cmd.OutOrStdout(), file, natsURL, subject)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				_ = sink.Close()

				return err
			}

			written, err := export.Export(cmd.Context(), client.Orders().IterateRecords(cmd.Context(), opts), sink)

			closeErr := sink.Close()
			if err != nil {
				return fmt.Errorf("failed to export orders after %d records: %w", written, err)
			}

			if closeErr != nil {
				return fmt.Errorf("failed to close export sink: %w", closeErr)
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d orders\n", written)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "write JSON lines to this file instead of stdout")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "publish records to this NATS server")
	cmd.Flags().StringVar(&subject, "subject", "", "NATS subject for published records")

	return cmd
}

// openSink picks the export destination. stdout is never closed.
func openSink(stdout io.Writer, file, natsURL, subject string) (export.Sink, error) {
	if natsURL != "" {
		sink, err := export.DialNATS(natsURL, subject)
		if err != nil {
			return nil, fmt.Errorf("failed to open NATS sink: %w", err)
		}

		return sink, nil
	}

	if file == "" || file == "-" {
		return export.NewJSONLinesSink(struct{ io.Writer }{stdout}), nil
	}

	out, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.ConfigFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}

	return export.NewJSONLinesSink(out), nil
}
