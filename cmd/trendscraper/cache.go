package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache management commands",
	}
	cmd.AddCommand(newCacheClearCmd(), newCacheStatsCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Cache.Ping(cmd.Context()) {
				return errors.New("failed to clear cache: redis unavailable")
			}
			n := a.Cache.ClearAll(cmd.Context(), "")
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cache entries\n", n)
			return nil
		},
	}
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.Cache.Ping(cmd.Context()) {
				fmt.Fprintln(out, "Redis connection failed")
				return errors.New("redis unavailable")
			}
			st, err := a.Cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			fmt.Fprintln(out, "Redis Cache Stats:")
			fmt.Fprintln(out, separator(30))
			fmt.Fprintln(out, "Status: connected")
			fmt.Fprintf(out, "Total keys in DB: %d\n", st.TotalKeys)
			fmt.Fprintf(out, "Cache keys: %d\n", st.NamespaceKeys)
			fmt.Fprintf(out, "Used memory: %s\n", st.UsedMemory)
			fmt.Fprintf(out, "Connected clients: %s\n", st.ConnectedClients)
			return nil
		},
	}
}
