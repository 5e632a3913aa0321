package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(votesCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(opCmd)

	drawCmd.Flags().Int("variants", 0, "Number of variants to vote on (1 commits directly)")
	drawCmd.Flags().String("mode", "", "Position mode: all, gk or none")
	opCmd.Flags().String("data", "{}", "JSON fields of the operation request")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show the registrations of a chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatGet("roster")
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the in-flight match session of a chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatGet("state")
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings [name value]",
	Short: "Show the match settings of a chat, or change one",
	Args:  cobra.MatchAll(cobra.MaximumNArgs(2), func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return errors.New("settings needs both a name and a value")
		}
		return nil
	}),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return chatGet("settings")
		}
		return chatOp("settings", map[string]any{"name": args[0], "value": args[1]})
	},
}

var votesCmd = &cobra.Command{
	Use:   "votes [variant id]",
	Short: "Show the vote tally, or vote for a variant",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return chatGet("votes")
		}
		return chatOp("votes", map[string]any{"variant_id": args[0]})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [position]",
	Short: "Register the acting account for the next match",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := map[string]any{}
		if len(args) == 1 {
			fields["position"] = args[0]
		}
		return chatOp("register", fields)
	},
}

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Split the active players into team variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		variants, _ := cmd.Flags().GetInt("variants")
		mode, _ := cmd.Flags().GetString("mode")
		return chatOp("draw/vote", map[string]any{"draw": map[string]any{"variants": variants, "mode": mode}})
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <a:b>",
	Short: "Enter the final score of the match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatOp("score", map[string]any{"text": args[0]})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the match session and registrations of a chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatOp("clear", nil)
	},
}

var opCmd = &cobra.Command{
	Use:   "op <operation>",
	Short: "Run any lifecycle operation, e.g. op scoring/scorer --data '{\"player_id\":3}'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		fields := map[string]any{}
		if err := sonic.UnmarshalString(data, &fields); err != nil {
			return fmt.Errorf("invalid --data: %w", err)
		}
		return chatOp(args[0], fields)
	},
}

func chatPath(suffix string) (string, error) {
	if channel == "" {
		return "", errors.New("--channel is required")
	}
	path := "/api/chats/" + url.PathEscape(channel) + "/" + suffix
	if thread != "" {
		path += "?thread=" + url.QueryEscape(thread)
	}
	return path, nil
}

func chatGet(suffix string) error {
	path, err := chatPath(suffix)
	if err != nil {
		return err
	}
	return performGetRequest(path)
}

// chatOp posts fields with the acting account to an operation endpoint.
func chatOp(op string, fields map[string]any) error {
	path, err := chatPath(op)
	if err != nil {
		return err
	}
	if account == "" {
		return errors.New("--as is required")
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["actor"] = map[string]string{"account_id": account, "name": name}
	body, err := sonic.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return performRequest(http.MethodPost, path, body)
}

func performGetRequest(endpoint string) error {
	return performRequest(http.MethodGet, endpoint, nil)
}

func performRequest(method, endpoint string, body []byte) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	if resp.StatusCode >= 400 {
		return errors.New("request failed with status " + strconv.Itoa(resp.StatusCode))
	}
	return nil
}
