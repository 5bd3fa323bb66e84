// Command saferoutectl administers authority accounts. Authorities cannot
// self-register, so this is how they are created and retired.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"saferoute-api/config"
	"saferoute-api/logging"
	"saferoute-api/models"
	"saferoute-api/repository"
	"saferoute-api/services"

	"github.com/spf13/cobra"
)

// openFunc builds the authority service and returns a release func.
type openFunc func(ctx context.Context) (*services.AuthorityService, func() error, error)

func main() {
	if err := newRootCmd(openFromEnv, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*services.AuthorityService, func() error, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log.Level)
	repo, closeRepo, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	tokens := services.NewVerificationService(repo, services.WithLogger(logger))
	authorities := services.NewAuthorityService(repo, services.NewAuthService(cfg.JWT), tokens, services.WithLogger(logger))
	return authorities, closeRepo, nil
}

func newRootCmd(open openFunc, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "saferoutectl",
		Short:        "Administer SafeRoute authority accounts",
		SilenceUsage: true,
	}
	root.SetOut(out)

	authority := &cobra.Command{
		Use:     "authority",
		Aliases: []string{"authorities"},
		Short:   "Create, list and deactivate authorities",
	}
	authority.AddCommand(
		newCreateCmd(open),
		newListCmd(open),
		newDeactivateCmd(open),
	)
	root.AddCommand(authority)
	return root
}

func withAuthorities(cmd *cobra.Command, open openFunc, fn func(*services.AuthorityService) error) error {
	svc, release, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			slog.Warn("failed to close repository", "error", err)
		}
	}()
	return fn(svc)
}

func newCreateCmd(open openFunc) *cobra.Command {
	var in services.NewAuthority
	var level string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := models.ParseJurisdictionLevel(level)
			if err != nil {
				return err
			}
			in.Level = parsed
			return withAuthorities(cmd, open, func(svc *services.AuthorityService) error {
				a, err := svc.CreateAuthority(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created authority %s (%s, %s)\n", a.ID, a.Email, a.Level)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Name, "name", "", "display name, unique")
	flags.StringVar(&in.Email, "email", "", "login email, unique")
	flags.StringVar(&in.Password, "password", "", "initial password (min 8 characters)")
	flags.StringVar(&in.Phone, "phone", "", "contact phone")
	flags.StringVar(&level, "level", "LOCAL", "jurisdiction level: LOCAL, STATE or NATIONAL")
	flags.StringVar(&in.Jurisdiction, "jurisdiction", "", "covered region, e.g. \"Manchester, NH\"")
	for _, name := range []string{"name", "email", "password", "jurisdiction"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newListCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorities, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthorities(cmd, open, func(svc *services.AuthorityService) error {
				rows, err := svc.ListAuthorities(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tLEVEL\tJURISDICTION\tACTIVE")
				for _, a := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", a.ID, a.Name, a.Email, a.Level, a.Jurisdiction, a.IsActive)
				}
				return w.Flush()
			})
		},
	}
}

func newDeactivateCmd(open openFunc) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Revoke an authority's access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthorities(cmd, open, func(svc *services.AuthorityService) error {
				if err := svc.DeactivateAuthority(cmd.Context(), email); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "authority email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
