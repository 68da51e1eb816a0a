// Copflow CLI — инструмент командной строки для управления задачами
// чекаута, пулом ресурсов и релизами через HTTP API.
//
// Использование:
//
//	copflowctl [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	task      Управление задачами чекаута
//	stats     Сводка платформы
//	account   Аккаунты пула ресурсов
//	proxy     Прокси пула ресурсов
//	release   Релизы планировщика
//	captcha   Операторский ввод CAPTCHA
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Copflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "copflowctl",
		Short:         "Copflow CLI — checkout automation control tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("COPFLOW_SERVER")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL (env: COPFLOW_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewStatsCmd(clientFn, outputFn),
		cli.NewAccountCmd(clientFn, outputFn),
		cli.NewProxyCmd(clientFn, outputFn),
		cli.NewReleaseCmd(clientFn, outputFn),
		cli.NewCaptchaCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
