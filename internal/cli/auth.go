package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations"
	"github.com/matzehuels/schemagraph/pkg/integrations/salesforce"
	"github.com/matzehuels/schemagraph/pkg/session"
)

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var instanceURL, token string
	ttl := session.DefaultTTL

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store org credentials for later commands",
		Long: `Verify an access token against the org and store it locally.

The token is checked with the userinfo endpoint before it is saved.
Sessions are stored in $XDG_CONFIG_HOME/schemagraph/sessions/.
SF_INSTANCE_URL and SF_ACCESS_TOKEN take precedence over a stored session.`,
		Example: `  schemagraph login --instance-url https://acme.my.salesforce.com --token "$SF_TOKEN"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if instanceURL == "" || token == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--instance-url and --token are required")
			}
			return c.runLogin(cmd.Context(), strings.TrimRight(instanceURL, "/"), token, ttl)
		},
	}

	cmd.Flags().StringVar(&instanceURL, "instance-url", "", "org instance URL, e.g. https://acme.my.salesforce.com")
	cmd.Flags().StringVar(&token, "token", "", "OAuth access token")
	cmd.Flags().DurationVar(&ttl, "ttl", ttl, "how long the stored session is used")
	return cmd
}

func (c *CLI) runLogin(ctx context.Context, instanceURL, token string, ttl time.Duration) error {
	if err := errors.ValidateInstanceURL(instanceURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, orgTimeout)
	defer cancel()

	spinner := newSpinnerWithContext(ctx, "Verifying token...")
	spinner.Start()

	client := salesforce.NewClient(salesforce.Options{InstanceURL: instanceURL, AccessToken: token})
	identity, err := client.Identity(ctx)
	if err != nil {
		spinner.StopWithError("Token rejected")
		return orgError(fmt.Errorf("verify token: %w", err))
	}
	version := c.apiVersion
	if version == "" {
		if latest, err := client.LatestVersion(ctx); err == nil {
			version = latest
		}
	}
	spinner.Stop()

	sess, err := session.New(instanceURL, token, identity, ttl)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if version != "" {
		sess.APIVersion = errors.NormalizeAPIVersion(version)
	}

	store, err := c.sessionStore()
	if err != nil {
		return err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	printSuccess("Logged in as %s", StyleHighlight.Render(displayUser(sess)))
	printDetail("Instance: %s", instanceURL)
	if sess.APIVersion != "" {
		printDetail("API version: %s", sess.APIVersion)
	}
	return nil
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored org credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.sessionStore()
			if err != nil {
				return err
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored org session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.loadSession(ctx)
			if err != nil {
				return err
			}

			if !offline {
				ctx, cancel := context.WithTimeout(ctx, orgTimeout)
				defer cancel()

				spinner := newSpinnerWithContext(ctx, "Verifying session...")
				spinner.Start()
				client := salesforce.NewClient(salesforce.Options{InstanceURL: sess.InstanceURL, AccessToken: sess.AccessToken})
				identity, err := client.Identity(ctx)
				if err != nil {
					spinner.StopWithError("Session invalid")
					return orgError(fmt.Errorf("verify session: %w", err))
				}
				spinner.Stop()
				sess.Identity = identity
			}

			printSuccess("Org Session")
			printKeyValue("User", displayUser(sess))
			if sess.Identity != nil {
				if sess.Identity.Name != "" {
					printKeyValue("Name", sess.Identity.Name)
				}
				if sess.Identity.Email != "" {
					printKeyValue("Email", sess.Identity.Email)
				}
				printKeyValue("Org", sess.Identity.OrganizationID)
			}
			printKeyValue("Instance", sess.InstanceURL)
			if sess.APIVersion != "" {
				printKeyValue("API version", sess.APIVersion)
			}
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006 15:04"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "do not contact the org")
	return cmd
}

// =============================================================================
// Session Management
// =============================================================================

func (c *CLI) sessionStore() (*session.CLIStore, error) {
	var (
		store *session.CLIStore
		err   error
	)
	if c.sessionDir != "" {
		store, err = session.NewCLIStoreAt(c.sessionDir)
	} else {
		store, err = session.NewCLIStore()
	}
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

// loadSession returns the stored session or a SESSION_NOT_FOUND error.
// Expired sessions are dropped by the store and read as missing.
func (c *CLI) loadSession(ctx context.Context) (*session.Session, error) {
	store, err := c.sessionStore()
	if err != nil {
		return nil, err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "not logged in (run '%s login' or set SF_INSTANCE_URL and SF_ACCESS_TOKEN)", appName)
	}
	return sess, nil
}

func displayUser(sess *session.Session) string {
	if name := sess.Username(); name != "" {
		return name
	}
	return sess.InstanceURL
}

func isUnauthorized(err error) bool {
	return stderrors.Is(err, integrations.ErrUnauthorized)
}
