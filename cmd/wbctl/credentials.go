package main

import (
	"fmt"

	"github.com/Sternrassler/wb-api-client/pkg/credentials"
	"github.com/spf13/cobra"
)

func newCredentialsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Inspect or manage the API key",
	}

	cmd.AddCommand(newCredentialsShowCmd(root), newCredentialsSetCmd(root), newCredentialsDeleteCmd(root))
	return cmd
}

func newCredentialsShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active connector with a masked key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.Close()

			conn, err := a.connector(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), conn.String())
			return nil
		},
	}
}

func newCredentialsSetCmd(root *rootOptions) *cobra.Command {
	var (
		key    string
		scopes string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key in the Redis credential store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, err := redisStore(root)
			if err != nil {
				return err
			}
			defer a.Close()

			conn := credentials.Connector{APIKey: key, Scopes: credentials.ParseScopes(scopes)}
			if err := store.Store(cmd.Context(), conn); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %s under %s\n", conn, store.Key())
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key")
	cmd.Flags().StringVar(&scopes, "scopes", "", "comma-separated token scopes")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newCredentialsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the API key from the Redis credential store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, err := redisStore(root)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := store.Delete(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", store.Key())
			return nil
		},
	}
}

func redisStore(root *rootOptions) (*app, *credentials.RedisSource, error) {
	a, err := newApp(root)
	if err != nil {
		return nil, nil, err
	}

	store, ok := a.source.(*credentials.RedisSource)
	if !ok {
		a.Close()
		return nil, nil, fmt.Errorf("credentials.redis.addr is not configured")
	}

	return a, store, nil
}
