package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/wb-api-client/pkg/action"
	"github.com/Sternrassler/wb-api-client/pkg/resources"
	"github.com/spf13/cobra"
)

type fetchOptions struct {
	page  int
	async bool
	from  string
	to    string
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <resource>",
		Short: "Fetch a resource and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, ok := resources.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown resource %q (see `wbctl resources`)", args[0])
			}

			if opts.from != "" || opts.to != "" {
				if resource.Name != resources.Orders.Name {
					return fmt.Errorf("--from/--to only apply to %s", resources.Orders.Name)
				}
				from, to, err := parsePeriod(opts.from, opts.to)
				if err != nil {
					return err
				}
				resource = resources.OrdersBetween(from, to)
			}

			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			conn, err := a.connector(ctx)
			if err != nil {
				return err
			}

			act, err := action.New(a.exec, conn, resource, opts.page)
			if err != nil {
				return err
			}

			var data any
			if opts.async {
				res := <-act.FetchAsync(ctx)
				data, err = res.Data, res.Err
			} else {
				data, err = act.Fetch(ctx)
			}
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "first page cursor (0 disables pagination)")
	cmd.Flags().BoolVar(&opts.async, "async", false, "run the fetch on a background goroutine")
	cmd.Flags().StringVar(&opts.from, "from", "", "orders created at or after (RFC3339)")
	cmd.Flags().StringVar(&opts.to, "to", "", "orders created before (RFC3339), default now")

	return cmd
}

func parsePeriod(fromRaw, toRaw string) (time.Time, time.Time, error) {
	if fromRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required with --to")
	}
	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse --from: %w", err)
	}

	to := time.Now()
	if toRaw != "" {
		if to, err = time.Parse(time.RFC3339, toRaw); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --to: %w", err)
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}

	return from, to, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResources(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tPATH\tPAGINATED\tFIELD")
	for _, r := range resources.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", r.Name, r.Method, r.Path, r.Paginated, r.DataField)
	}
	return tw.Flush()
}
