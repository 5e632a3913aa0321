package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host    string
	channel string
	thread  string
	account string
	name    string
	token   string
)

var rootCmd = &cobra.Command{
	Use:   "football-cli",
	Short: "A CLI to interact with the football manager server",
	Long: `A command-line interface for making requests to the match lifecycle
endpoints of the football manager bot.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&channel, "channel", "", "The chat channel id")
	rootCmd.PersistentFlags().StringVar(&thread, "thread", "", "The thread id inside the channel, if any")
	rootCmd.PersistentFlags().StringVar(&account, "as", "", "The account id acting in the chat")
	rootCmd.PersistentFlags().StringVar(&name, "name", "", "The display name of the acting account")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("API_TOKEN"), "The API token of the server (defaults to $API_TOKEN)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
