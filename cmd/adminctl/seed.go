package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/lottodesk-backend/internal/app"
	"github.com/angelmondragon/lottodesk-backend/internal/auth"
	"github.com/angelmondragon/lottodesk-backend/internal/categories"
	pkgauth "github.com/angelmondragon/lottodesk-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
)

var defaultCategories = []categories.CreateCategoryInput{
	{Name: "Daily Draws", Description: "Pick 3, Pick 4 and other daily games"},
	{Name: "Jackpots", Description: "Multi-state jackpot games"},
	{Name: "Scratch-offs", Description: "Instant tickets"},
}

func seedRolesCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create or reset the built-in roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, err := auth.SeedSystemRoles(cmd.Context(), rt.store.Backend)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(ids))
			for name := range ids {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, ids[name])
			}
			return nil
		},
	}
}

func bootstrapAdminCommand(open opener) *cobra.Command {
	var req auth.BootstrapRequest
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first super admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := auth.BootstrapAdmin(cmd.Context(), rt.store.Backend, rt.cfg.Password, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedCategoriesCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Create the default game categories",
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

			actor := pkgauth.SystemActor(programName)
			for _, input := range defaultCategories {
				created, err := services.Categories.Create(ctx, actor, input)
				if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
					fmt.Fprintf(cmd.OutOrStdout(), "exists\t%s\n", input.Name)
					continue
				}
				if err != nil {
					return fmt.Errorf("create %q: %w", input.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created\t%s\t%s\n", created.Slug, created.ID)
			}
			return nil
		},
	}
}
