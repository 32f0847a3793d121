package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/haierkeys/gift-share-service/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type maintenanceFlags struct {
	dir    string
	config string
}

func (f *maintenanceFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&f.config, "config", "c", "", "config file")
}

// withApp 创建 App Container 执行 fn，结束后关闭
func withApp(f *maintenanceFlags, fn func(ctx context.Context, a *internalApp.App) error) {
	changeDir(f.dir)
	runEnv := &runFlags{config: f.config}
	if err := resolveConfig(runEnv); err != nil {
		bootstrapLogger.Error("config file auto create error", zap.Error(err))
		return
	}

	a, _, err := bootApp(runEnv.config, "")
	if err != nil {
		bootstrapLogger.Error("boot failed", zap.Error(err))
		return
	}
	ctx := context.Background()
	defer func() {
		if err := a.Shutdown(ctx); err != nil {
			bootstrapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := fn(ctx, a); err != nil {
		bootstrapLogger.Error("command failed", zap.Error(err))
	}
}

func init() {
	migrateEnv := new(maintenanceFlags)
	migrateCmd := &cobra.Command{
		Use:   "migrate [-c config_file]",
		Short: "Create or upgrade the share tables and exit",
		Run: func(cmd *cobra.Command, args []string) {
			withApp(migrateEnv, func(ctx context.Context, a *internalApp.App) error {
				if err := a.EnsureSchema(ctx); err != nil {
					return err
				}
				fmt.Println("schema up to date")
				return nil
			})
		},
	}
	migrateEnv.bind(migrateCmd)

	sweepEnv := new(maintenanceFlags)
	sweepCmd := &cobra.Command{
		Use:   "sweep [-c config_file]",
		Short: "Delete expired shares once and exit",
		Run: func(cmd *cobra.Command, args []string) {
			withApp(sweepEnv, func(ctx context.Context, a *internalApp.App) error {
				for _, e := range a.Engines() {
					stats, err := e.Sweep(ctx)
					if err != nil {
						return fmt.Errorf("sweep %s: %w", e.Artifact(), err)
					}
					fmt.Printf("%-8s scanned=%d deleted=%d failed=%d skipped=%t\n",
						e.Artifact(), stats.Scanned, stats.Deleted, stats.Failed, stats.Skipped)
				}
				return nil
			})
		},
	}
	sweepEnv.bind(sweepCmd)

	rootCmd.AddCommand(migrateCmd, sweepCmd)
}
