package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewAccountCmd создаёт группу команд для аккаунтов пула.
func NewAccountCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage pool accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(clientFn, outputFn),
		newAccountAddCmd(clientFn, outputFn),
		newAccountReactivateCmd(clientFn, outputFn),
		newAccountDeactivateCmd(clientFn, outputFn),
	)

	return cmd
}

func newAccountListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			accounts, err := client.ListAccounts(platform)
			if err != nil {
				return err
			}

			headers := []string{"ID", "PLATFORM", "EMAIL", "STATUS", "OK", "FAIL", "STREAK"}
			rows := make([][]string, len(accounts))
			for i, a := range accounts {
				rows[i] = []string{
					a.ID, a.Platform, a.Email, a.Status,
					strconv.Itoa(a.Successes), strconv.Itoa(a.Failures),
					strconv.Itoa(a.ConsecutiveFailures),
				}
			}

			out.Print(headers, rows, accounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")

	return cmd
}

func newAccountAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "add PLATFORM EMAIL",
		Short: "Add an account to the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			acc, err := client.CreateAccount(CreateAccountRequest{
				Platform:    args[0],
				Email:       args[1],
				Credentials: credentials,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Account added: %s", acc.ID))
			out.Print(
				[]string{"ID", "PLATFORM", "EMAIL", "STATUS"},
				[][]string{{acc.ID, acc.Platform, acc.Email, acc.Status}},
				acc,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&credentials, "credentials", "", "Opaque credential blob passed to the platform adapter")

	return cmd
}

func newAccountReactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate ACCOUNT_ID",
		Short: "Return an account to service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ReactivateAccount(args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Account reactivated: %s", args[0]))
			return nil
		},
	}
}

func newAccountDeactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ACCOUNT_ID",
		Short: "Take an account out of service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeactivateAccount(args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Account deactivated: %s", args[0]))
			return nil
		},
	}
}

// NewProxyCmd создаёт группу команд для прокси пула.
func NewProxyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage pool proxies",
	}

	cmd.AddCommand(
		newProxyListCmd(clientFn, outputFn),
		newProxyAddCmd(clientFn, outputFn),
	)

	return cmd
}

func newProxyListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			proxies, err := client.ListProxies()
			if err != nil {
				return err
			}

			headers := []string{"ID", "ADDRESS", "PROTOCOL", "STATUS", "OK", "FAIL"}
			rows := make([][]string, len(proxies))
			for i, p := range proxies {
				rows[i] = []string{
					p.ID, p.Address, p.Protocol, p.Status,
					strconv.Itoa(p.Successes), strconv.Itoa(p.Failures),
				}
			}

			out.Print(headers, rows, proxies)
			return nil
		},
	}
}

func newProxyAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var protocol, username, password string

	cmd := &cobra.Command{
		Use:   "add ADDRESS",
		Short: "Add a proxy to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.CreateProxy(CreateProxyRequest{
				Address:  args[0],
				Protocol: protocol,
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Proxy added: %s", p.ID))
			out.Print(
				[]string{"ID", "ADDRESS", "PROTOCOL", "STATUS"},
				[][]string{{p.ID, p.Address, p.Protocol, p.Status}},
				p,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&protocol, "protocol", "http", "Proxy protocol (http, socks4, socks5)")
	cmd.Flags().StringVar(&username, "username", "", "Proxy auth username")
	cmd.Flags().StringVar(&password, "password", "", "Proxy auth password")

	return cmd
}
