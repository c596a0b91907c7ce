package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omer-faruq/assistant-core/pkg/providers"
)

var (
	queryProvider string
	querySystem   string
	queryStream   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [prompt]",
	Short: "Send a prompt to a configured provider",
	Long: `Send a prompt to a configured provider and print the normalized answer.

The prompt is taken from the arguments, or from stdin when no arguments
are given. Ctrl-C cancels an in-flight request cleanly.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading prompt from stdin: %w", err)
			}
			prompt = strings.TrimSpace(string(data))
		}
		if prompt == "" {
			return fmt.Errorf("no prompt given")
		}

		a, shutdown, err := buildApp(cfgFile)
		if err != nil {
			return err
		}
		defer shutdown()

		provider := queryProvider
		if provider == "" {
			provider = a.cfg.DefaultProvider
		}
		if provider == "" {
			return fmt.Errorf("no provider selected; use --provider or set default_provider")
		}

		var messages []providers.Message
		if querySystem != "" {
			messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: querySystem})
		}
		messages = append(messages, providers.Message{Role: providers.RoleUser, Content: prompt})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adapter, err := a.manager.Get(provider)
		if err != nil {
			return err
		}

		stream := queryStream || adapter.Settings().Stream
		if stream {
			handle, err := adapter.QueryStream(ctx, messages, func(delta string) {
				fmt.Print(delta)
			})
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				handle.Cancel()
			}()
			if _, err := handle.Wait(); err != nil {
				return err
			}
			fmt.Println()
			return nil
		}

		text, err := adapter.Query(ctx, messages)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryProvider, "provider", "p", "", "provider name (defaults to default_provider)")
	queryCmd.Flags().StringVarP(&querySystem, "system", "s", "", "system instruction prepended to the conversation")
	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "stream the answer as it is generated")
	rootCmd.AddCommand(queryCmd)
}
