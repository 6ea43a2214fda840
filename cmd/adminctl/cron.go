package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/lottodesk-backend/internal/app"
	"github.com/angelmondragon/lottodesk-backend/internal/cron"
)

func runCronCommand(open opener) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "run-cron",
		Short: "Run the maintenance jobs once, under the cron worker's lock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			services, err := app.NewServices(app.Deps{Config: rt.cfg, Logger: rt.logg, Backend: rt.store.Backend})
			if err != nil {
				return err
			}
			defer services.Close()

			jobs, err := services.CronJobs(rt.cfg, rt.logg)
			if err != nil {
				return err
			}
			registry := cron.NewRegistry(jobs...)
			if only != "" {
				job, ok := registry.Lookup(only)
				if !ok {
					return fmt.Errorf("unknown job %q", only)
				}
				registry = cron.NewRegistry(job)
			}

			lock, release, err := rt.lock(ctx)
			if err != nil {
				return err
			}
			defer release()

			service, err := cron.NewService(cron.ServiceParams{Logger: rt.logg, Registry: registry, Lock: lock})
			if err != nil {
				return err
			}
			if err := service.RunOnce(ctx); err != nil {
				return err
			}
			for _, job := range registry.Jobs() {
				fmt.Fprintf(cmd.OutOrStdout(), "ran\t%s\n", job.Name())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "job", "", "run a single job by name")
	return cmd
}
