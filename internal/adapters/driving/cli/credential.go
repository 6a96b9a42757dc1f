package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setCredentialCmd = &cobra.Command{
	Use:   "set-credential <source-name>",
	Short: "Store an API key for a data source",
	Long: `Prompts for the source's API key (input is hidden on a terminal)
and stores it in the configuration file. Setting a credential also
enables the source.

The googlesearch credential combines the API key and engine ID as
"apikey:cx".`,
	Args: cobra.ExactArgs(1),
	RunE: runSetCredential,
}

func init() {
	rootCmd.AddCommand(setCredentialCmd)
}

func runSetCredential(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	name := args[0]

	if orchestrator != nil && !driverExists(name) {
		return fmt.Errorf("unknown source %q; run 'prospect sources' for the list", name)
	}

	cmd.Printf("API key for %s: ", name)
	credential := readSecret()
	cmd.Println()
	if credential == "" {
		return errors.New("empty credential")
	}

	if err := configStore.SetCredential(name, credential); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	cmd.Printf("Credential for %s saved to %s\n", name, configStore.Path())
	return nil
}

func driverExists(name string) bool {
	for _, info := range orchestrator.ListDrivers() {
		if info.Name == name {
			return true
		}
	}
	return false
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	// Read without echo when attached to a terminal.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
