package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igcollector/pkg/account"
	"igcollector/pkg/auth"
	"igcollector/pkg/ui"
)

var (
	addProxy     string
	addUserAgent string
	resetAll     bool
)

// accountsCmd represents the accounts command
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the account pool",
	Long: `Manage the accounts in the pool.

Credentials are stored separately from pool state, using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (single-account setups)

Pool state holds only an opaque reference to the credentials.`,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Add an account to the pool",
	Long: `Add an account to the pool and store its credentials securely.

You will be prompted for the password; it is never echoed and never written
to the pool state file.`,
	Example: `  # Interactive add
  igcollector accounts add

  # Add with username and a dedicated proxy
  igcollector accounts add myaccount --proxy http://127.0.0.1:8080`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAccountsAdd,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an account and its credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runAccountsRemove,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the accounts in the pool",
	Run:   runAccountsList,
}

var accountsResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Reset an account back into rotation",
	Long: `Reset returns a quarantined, cooling, or disabled account to rotation
and clears its usage window counters. Use --all to reset every account.`,
	Example: `  # Reset one account
  igcollector accounts reset myaccount

  # Reset the whole pool
  igcollector accounts reset --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAccountsReset,
}

var accountsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Take an account out of rotation",
	Args:  cobra.ExactArgs(1),
	Run:   runAccountsDisable,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsResetCmd)
	accountsCmd.AddCommand(accountsDisableCmd)

	accountsAddCmd.Flags().StringVar(&addProxy, "proxy", "", "proxy address for this account")
	accountsAddCmd.Flags().StringVar(&addUserAgent, "user-agent", "", "user agent for this account")
	accountsResetCmd.Flags().BoolVar(&resetAll, "all", false, "reset every account in the pool")
}

func runAccountsAdd(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Print("Username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}

	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	fmt.Print("Password (hidden): ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if manager.Exists(username) {
		ui.PrintWarning("Credentials already stored, updating", username)
	}

	if err := manager.Store(&auth.Credentials{
		Ref:       username,
		Username:  username,
		Password:  password,
		UserAgent: addUserAgent,
		Proxy:     addProxy,
	}); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	p, _, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	acc := account.New(username, username)
	acc.Proxy = addProxy
	if err := p.AddAccount(acc); err != nil {
		ui.PrintError("Failed to add account to pool", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Account %q added to the pool", username))
}

func runAccountsRemove(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	id := args[0]

	p, _, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	if err := p.RemoveAccount(id); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}

	if manager, err := auth.NewManager(); err == nil {
		if err := manager.Delete(id); err != nil {
			ui.PrintWarning("Account removed but credentials could not be deleted", err.Error())
		}
	}

	ui.PrintSuccess(fmt.Sprintf("Account %q removed", id))
}

func runAccountsList(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	_, store, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	accounts := store.All()
	if len(accounts) == 0 {
		ui.PrintInfo("Pool", "empty")
		return
	}

	fmt.Print(ui.RenderAccounts(accounts, time.Now()))
}

func runAccountsReset(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if !resetAll && len(args) == 0 {
		ui.PrintError("Provide an account id or --all")
		os.Exit(1)
	}

	p, store, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	if resetAll {
		count := 0
		for _, acc := range store.All() {
			if err := p.Reset(acc.ID); err != nil {
				ui.PrintWarning("Skipped "+acc.ID, err.Error())
				continue
			}
			count++
		}
		ui.PrintSuccess(fmt.Sprintf("%d accounts reset", count))
		return
	}

	if err := p.Reset(args[0]); err != nil {
		ui.PrintError("Failed to reset account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Account %q reset", args[0]))
}

func runAccountsDisable(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	p, _, err := openPool(cfg)
	if err != nil {
		ui.PrintError("Failed to open pool", err.Error())
		os.Exit(1)
	}

	if err := p.Disable(args[0]); err != nil {
		ui.PrintError("Failed to disable account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Account %q disabled", args[0]))
}
