package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCaptchaCmd создаёт группу команд операторского ввода CAPTCHA.
// Используется в ручном режиме решения: оператор получает challenge ID
// из уведомления или лога и передаёт токен ожидающей задаче.
func NewCaptchaCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captcha",
		Short: "Operator captcha input",
	}

	cmd.AddCommand(
		newCaptchaTokenCmd(clientFn, outputFn),
		newCaptchaCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newCaptchaTokenCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "token CHALLENGE_ID TOKEN",
		Short: "Provide a solved captcha token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ProvideCaptchaToken(args[0], args[1]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Token delivered: %s", args[0]))
			return nil
		},
	}
}

func newCaptchaCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel CHALLENGE_ID",
		Short: "Reject a pending challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.CancelCaptcha(args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Challenge cancelled: %s", args[0]))
			return nil
		},
	}
}
