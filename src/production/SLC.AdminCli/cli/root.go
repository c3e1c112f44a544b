package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	auth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	events "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/events"
	container "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Container"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
)

// ContainerFactory builds the container the commands run against
type ContainerFactory func() (*container.ApiContainer, error)

// NewRootCommand builds the slcctl command tree
func NewRootCommand(newContainer ContainerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "slcctl",
		Short:         "Administer the street light control service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSetupCmd(newContainer))
	root.AddCommand(newCreateUserCmd(newContainer))
	root.AddCommand(newHashPasswordCmd(newContainer))
	root.AddCommand(newAnalyticsCmd(newContainer))
	root.AddCommand(newEventsCmd(newContainer))
	return root
}

// Execute runs the CLI against the environment configuration
func Execute() {
	if err := NewRootCommand(container.NewApiContainer).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withServices builds and initializes a container for one command
func withServices(cmd *cobra.Command, newContainer ContainerFactory, run func(ctx context.Context, s *container.Services) error) error {
	ctr, err := newContainer()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	defer ctr.Shutdown(context.Background())

	if err := ctr.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return run(ctx, ctr.Services())
}

func newSetupCmd(newContainer ContainerFactory) *cobra.Command {
	var req api_models.SetupRequest
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the first admin and the default ThingSpeak credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, newContainer, func(ctx context.Context, s *container.Services) error {
				admin, err := s.SetupService.Setup(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (%s)\n", admin.Email, admin.AccountID)
				if req.APIKey != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Credential %q created and activated\n", auth.DefaultCredentialName)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&req.Name, "name", "", "admin display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "ThingSpeak write key for the default credential")
	cmd.Flags().StringVar(&req.Channel, "channel", "", "ThingSpeak channel id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCreateUserCmd(newContainer ContainerFactory) *cobra.Command {
	var req api_models.CreateAccountRequest
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, newContainer, func(ctx context.Context, s *container.Services) error {
				account, err := s.UserService.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s created with role %s (%s)\n", account.Email, account.Role, account.AccountID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "password; omit for Google-only accounts")
	cmd.Flags().StringVar(&req.Role, "role", "user", "admin, operator or user")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "personal ThingSpeak write key")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newHashPasswordCmd(newContainer ContainerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash using the configured cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := newContainer()
			if err != nil {
				return err
			}
			cfg := ctr.GetConfig()
			users := auth.NewUserService(nil, cfg.Auth.BcryptCost, cfg.Auth.PasswordMinLength, logger.NewNopLogger())
			hash, err := users.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newAnalyticsCmd(newContainer ContainerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print the account and device summary as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, newContainer, func(ctx context.Context, s *container.Services) error {
				summary, err := s.Analytics.Summary(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			})
		},
	}
}

func newEventsCmd(newContainer ContainerFactory) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect device state events",
	}
	eventsCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print state events from the MQTT broker until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := newContainer()
			if err != nil {
				return err
			}
			cfg := ctr.GetConfig()
			if cfg.MQTT.BrokerHost == "" {
				return fmt.Errorf("BROKER_HOST is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := events.NewWatcher(cfg.MQTT, cfg.GetMQTTBrokerURL(), printEvent(cmd.OutOrStdout()), ctr.GetLogger())
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s on %s\n", w.SubscriptionTopic(), cfg.GetMQTTBrokerURL())
			return w.Run(ctx)
		},
	})
	return eventsCmd
}

func printEvent(out io.Writer) events.Handler {
	return func(topic string, e mqtmodels.StateEvent) {
		fmt.Fprintf(out, "%s  %-8s led=%-3d %s %s by %s (%s)\n",
			e.Ts.Format(time.RFC3339), e.Status, e.LedNumber, e.Field, e.DeviceID, e.ChangedBy, e.Source)
	}
}
