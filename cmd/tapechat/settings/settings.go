package settingscmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/tapechat/cmd/tapechat/settingspath"
	"github.com/papercomputeco/tapechat/pkg/settings"
)

const settingsLongDesc string = `Show or change the saved chat settings.

The bearer token and user id are stored in ~/.tapechat/settings.toml
(or the file given with --settings) and used by "tapechat chat" and
"tapechat ask".

Examples:
  tapechat settings show
  tapechat settings set --user alice
  tapechat settings set --token-prompt`

const settingsShortDesc string = "Show or change saved settings"

type settingsCommander struct {
	settingsPath string

	token       string
	user        string
	tokenPrompt bool
}

func NewSettingsCmd() *cobra.Command {
	cmder := &settingsCommander{}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: settingsShortDesc,
		Long:  settingsLongDesc,
	}
	cmd.PersistentFlags().StringVarP(&cmder.settingsPath, "settings", "s", "", "Path to the settings file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(cmd)
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.set(cmd)
		},
	}
	set.Flags().StringVar(&cmder.token, "token", "", "Bearer token (empty string clears it)")
	set.Flags().StringVar(&cmder.user, "user", "", "User id")
	set.Flags().BoolVar(&cmder.tokenPrompt, "token-prompt", false, "Read the token from stdin without echoing it")
	set.MarkFlagsMutuallyExclusive("token", "token-prompt")

	cmd.AddCommand(show, set)
	return cmd
}

func (c *settingsCommander) open() (settings.Store, string, error) {
	path, err := settingspath.ResolveSettingsPath(c.settingsPath)
	if err != nil {
		return nil, "", fmt.Errorf("could not resolve settings: %w", err)
	}
	store, err := settings.Open(path, zap.NewNop())
	if err != nil {
		return nil, "", fmt.Errorf("could not open settings %s: %w", path, err)
	}
	return store, path, nil
}

func (c *settingsCommander) show(cmd *cobra.Command) error {
	store, path, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	s := store.Load()
	fmt.Fprintf(cmd.OutOrStdout(), "settings: %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "user:     %s\n", s.UserID)
	fmt.Fprintf(cmd.OutOrStdout(), "token:    %s\n", mask(s.Token))
	return nil
}

func (c *settingsCommander) set(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if !flags.Changed("token") && !flags.Changed("user") && !c.tokenPrompt {
		return errors.New("nothing to set: pass --token, --token-prompt or --user")
	}

	store, path, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	s := store.Load()
	if flags.Changed("token") {
		s.Token = strings.TrimSpace(c.token)
	}
	if c.tokenPrompt {
		tok, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("could not read token: %w", err)
		}
		s.Token = tok
	}
	if flags.Changed("user") {
		s.UserID = strings.TrimSpace(c.user)
	}

	if err := store.Save(s); err != nil {
		return fmt.Errorf("could not save settings: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved settings to %s\n", path)
	return nil
}

// readSecret reads one line, hiding the input when it comes from a terminal.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// mask hides all but the last four characters of a token.
func mask(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
