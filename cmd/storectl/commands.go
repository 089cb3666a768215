package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/veloshop/storefront/internal/entity"
	"github.com/veloshop/storefront/internal/fetcher"
	"github.com/veloshop/storefront/internal/mutator"
	"github.com/veloshop/storefront/internal/view"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		productID string
		approved  bool
		active    bool
		page      int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "Fetch and print a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			name, err := entity.Resolve(args[0])
			if err != nil {
				return err
			}

			params := fetcher.Params{
				ProductID:  productID,
				ActiveOnly: active,
				Page:       page,
				Limit:      limit,
			}
			if cmd.Flags().Changed("approved") {
				params.Approved = &approved
			}

			docs, err := sess.coord.Fetch(cmd.Context(), name, params)
			if err != nil {
				return err
			}
			return printJSON(docs)
		},
	}

	cmd.Flags().StringVar(&productID, "product-id", "", "filter by product id")
	cmd.Flags().BoolVar(&approved, "approved", false, "filter by approval state")
	cmd.Flags().BoolVar(&active, "active", false, "only active documents")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Fetch a collection and print one document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			name, err := entity.Resolve(args[0])
			if err != nil {
				return err
			}

			if _, err := sess.coord.Fetch(cmd.Context(), name, fetcher.Params{}); err != nil {
				return err
			}
			doc, ok := view.DocumentByID(sess.store, name, args[1])
			if !ok {
				return fmt.Errorf("no document %q in %s", args[1], name)
			}
			return printJSON(doc)
		},
	}
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create <collection>",
		Short: "Create a document and refresh related collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			payload, err := decodePayload(data)
			if err != nil {
				return err
			}

			hook, err := mutator.New(sess.store, sess.client, sess.coord, sess.graph,
				mutator.Config{Name: args[0]})
			if err != nil {
				return err
			}
			resp, err := hook.Create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "document JSON (or @file, or - for stdin)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		data string
		id   string
	)

	cmd := &cobra.Command{
		Use:   "update <collection>",
		Short: "Update a document and refresh related collections",
		Long: `Update a document. With --id the payload is sent as a patch to the
document's URL; without it the payload must carry its own _id or id field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			payload, err := decodePayload(data)
			if err != nil {
				return err
			}

			hook, err := mutator.New(sess.store, sess.client, sess.coord, sess.graph,
				mutator.Config{Name: args[0]})
			if err != nil {
				return err
			}

			var update mutator.UpdatePayload
			if id != "" {
				update = mutator.UpdatePayload{ID: id, Patch: payload}
			} else {
				update = mutator.UpdatePayload{Doc: entity.Document(payload)}
			}

			resp, err := hook.Update(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "document JSON (or @file, or - for stdin)")
	cmd.Flags().StringVar(&id, "id", "", "document id, when the payload does not carry one")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a document and refresh related collections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			hook, err := mutator.New(sess.store, sess.client, sess.coord, sess.graph,
				mutator.Config{Name: args[0]})
			if err != nil {
				return err
			}
			resp, err := hook.Delete(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func newRefreshCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Warm the cache with the bootstrap collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(opts)
			if err != nil {
				return err
			}
			if err := sess.coord.FetchInitial(cmd.Context()); err != nil {
				return err
			}
			for _, name := range []entity.Name{entity.Products, entity.Categories, entity.Reviews} {
				rec := sess.store.State(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents\n", name, len(rec.Data))
			}
			return nil
		},
	}
}

// decodePayload parses the --data flag: inline JSON, @file, or - for
// stdin.
func decodePayload(data string) (map[string]any, error) {
	var raw []byte
	switch {
	case data == "-":
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		raw = in
	case len(data) > 1 && data[0] == '@':
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		raw = []byte(data)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse document JSON: %w", err)
	}
	return payload, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
