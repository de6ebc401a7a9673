package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// collect 只执行一轮采集任务后退出：抓取全部来源、入库、推送、发布事件
func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Run one collection round across all scrapers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ConnectBackends(); err != nil {
				return err
			}
			s, err := a.NewScheduler()
			if err != nil {
				return fmt.Errorf("init scheduler: %w", err)
			}

			res := s.RunOnce(cmd.Context())

			out := cmd.OutOrStdout()
			names := make([]string, 0, len(res.Counts))
			for name := range res.Counts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%-20s %d trends\n", name, res.Counts[name])
			}
			fmt.Fprintf(out, "saved=%d notified=%d published=%d\n", res.Saved, res.Notified, res.Published)
			return nil
		},
	}
}
