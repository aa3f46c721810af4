package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "walletledger-cli",
		Short:         "WalletLedger CLI tool",
		Long:          `A command line interface for interacting with the WalletLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the WalletLedger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("WALLETLEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(), transferCmd(), historyCmd(), ledgerCmd(), tokenCmd())
	return rootCmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var owner string
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open an account funded with the opening grant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if _, err := call(http.MethodPost, "/api/v1/accounts", dto.OpenAccountRequest{OwnerID: owner}, nil, &account); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), account)
			return nil
		},
	}
	openCmd.Flags().StringVar(&owner, "owner", "", "Owner subject of the account")

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var balance dto.BalanceResponse
			if _, err := call(http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/balance", nil, nil, &balance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", balance.AccountID, balance.Balance)
			return nil
		},
	}

	cmd.AddCommand(openCmd, balanceCmd)
	return cmd
}

func transferCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move funds between accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := map[string]string{}
			if key != "" {
				headers["Idempotency-Key"] = key
			}

			var result dto.TransferResponse
			status, err := call(http.MethodPost, "/api/v1/transfers", dto.CreateTransferRequest{
				SourceAccountID: args[0],
				DestAccountID:   args[1],
				Amount:          args[2],
			}, headers, &result)
			if err != nil {
				return err
			}

			if status == http.StatusOK {
				fmt.Fprintln(cmd.OutOrStdout(), "already applied, returning original movement")
			}
			printJSON(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "idempotency-key", "", "Key that makes the transfer safe to retry")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		account string
		order   string
		cursor  int64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List movements, newest first by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if account != "" {
				q.Set("account_id", account)
			}
			if order != "" {
				q.Set("order", order)
			}
			if cursor > 0 {
				q.Set("cursor", strconv.FormatInt(cursor, 10))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}

			path := "/api/v1/movements"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var page dto.ListMovementsResponse
			if _, err := call(http.MethodGet, path, nil, nil, &page); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %-28s %-28s %-28s %12s %s\n", "SEQ", "ID", "FROM", "TO", "AMOUNT", "STATUS")
			for _, m := range page.Movements {
				fmt.Fprintf(out, "%-6d %-28s %-28s %-28s %12s %s\n",
					m.Seq, truncate(m.ID, 28), truncate(m.SourceAccountID, 28), truncate(m.DestAccountID, 28), m.Amount, m.Status)
			}
			if page.NextCursor != 0 {
				fmt.Fprintf(out, "next cursor: %d\n", page.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only movements touching this account")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	cmd.Flags().Int64Var(&cursor, "cursor", 0, "Resume after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ConsistencyResponse
			status, err := call(http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &result)
			if err != nil && status != http.StatusConflict {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s\n", result.Status)
			fmt.Fprintf(out, "Total balance: %s\n", result.TotalBalance)
			fmt.Fprintf(out, "Total opening: %s\n", result.TotalOpening)
			if !result.Consistent {
				return fmt.Errorf("consistency check FAILED")
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret  string
		role    string
		expires time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token signed with the server secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			signed, err := auth.NewJWTManager(secret, expires).Generate(domain.Caller{
				Subject: args[0],
				Role:    domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOwner), "admin, owner or viewer")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token lifetime")
	return cmd
}

// call sends a JSON request and decodes a JSON answer into out. Non-2xx
// answers are returned as errors, with out still decoded when possible.
func call(method, path string, body any, headers map[string]string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		_ = json.Unmarshal(raw, out)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg := fmt.Sprintf("%s (status %d)", apiErr.Error, resp.StatusCode)
			if apiErr.Message != "" {
				msg += ": " + apiErr.Message
			}
			if apiErr.Retryable {
				msg += " [retryable]"
			}
			return resp.StatusCode, fmt.Errorf("%s", msg)
		}
		return resp.StatusCode, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
