package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/internal/governance"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

const programName = "daoctl"

var globalFlags = struct {
	url    string
	apiKey string
	key    string
}{}

func clientFromFlags() (*client, error) {
	return newClient(globalFlags.url, globalFlags.apiKey, globalFlags.key)
}

// printJSON writes an api object to stdout indented
func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	err := json.Indent(&buf, raw, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(buf.String())
	return nil
}

func joinCommand() *cobra.Command {
	var payment string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the DAO by paying the membership fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := com.ParseEther(payment)
			if err != nil {
				return err
			}

			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.post(cmd.Context(), "/dao/members", governance.JoinRequest{Payment: amount.String()})
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&payment, "payment", "1", "payment in ether")
	return cmd
}

func delegateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delegate <address>",
		Short: "Delegate your voting weight, delegate to yourself to reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := com.ParseAddress(args[0])
			if err != nil {
				return err
			}

			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.post(cmd.Context(), "/dao/delegate", governance.DelegateRequest{Target: target.Hex()})
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}
}

// proposalFlags are aligned by index, the nth --target is called with the nth --call
type proposalFlags struct {
	targets     []string
	values      []string
	calls       []string
	args        []string
	calldatas   []string
	description string
}

// request encodes the calls of f into a propose request
func (f proposalFlags) request() (*governance.ProposeRequest, error) {
	n := len(f.targets)
	if len(f.values) > n || len(f.calls) > n || len(f.args) > n || len(f.calldatas) > n {
		return nil, fmt.Errorf("every action needs a --target")
	}

	req := &governance.ProposeRequest{
		Targets:     f.targets,
		Values:      make([]string, n),
		Signatures:  make([]string, n),
		Calldatas:   make([]hexutil.Bytes, n),
		Description: f.description,
	}

	for i := 0; i < n; i++ {
		req.Values[i] = "0"
		if i < len(f.values) && f.values[i] != "" {
			req.Values[i] = f.values[i]
		}

		if i < len(f.calldatas) && f.calldatas[i] != "" {
			data, err := hexutil.Decode(f.calldatas[i])
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			req.Signatures[i] = "-"
			req.Calldatas[i] = data
			continue
		}

		if i >= len(f.calls) || f.calls[i] == "" {
			req.Signatures[i] = "-"
			req.Calldatas[i] = hexutil.Bytes{}
			continue
		}

		var raw []string
		if i < len(f.args) && f.args[i] != "" {
			raw = strings.Split(f.args[i], ",")
		}

		data, err := com.EncodeCallStrings(f.calls[i], raw...)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}

		req.Signatures[i] = f.calls[i]
		req.Calldatas[i] = data
	}

	return req, nil
}

func proposeCommand() *cobra.Command {
	var f proposalFlags

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Submit a proposal",
		Example: `  daoctl propose --target 0x3aa5...443c --value 10 --call 'mint(address)' --args 0x68b1...1aed \
    --description "buy the collectible"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}

			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.post(cmd.Context(), "/dao/proposals", req)
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}

	cmd.Flags().StringArrayVar(&f.targets, "target", nil, "address called by the action, repeat for every action")
	cmd.Flags().StringArrayVar(&f.values, "value", nil, "wei sent with the action")
	cmd.Flags().StringArrayVar(&f.calls, "call", nil, "function signature, e.g. 'mint(address)'")
	cmd.Flags().StringArrayVar(&f.args, "args", nil, "comma separated arguments of the call")
	cmd.Flags().StringArrayVar(&f.calldatas, "calldata", nil, "raw hex calldata, replaces --call")
	cmd.Flags().StringVar(&f.description, "description", "", "what the proposal is about")
	return cmd
}

func voteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <proposal-id> <for|against>",
		Short: "Cast a ballot on an active proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var support bool
			switch strings.ToLower(args[1]) {
			case "for", "yes", "true":
				support = true
			case "against", "no", "false":
				support = false
			default:
				return fmt.Errorf("invalid ballot %q, use for or against", args[1])
			}

			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.post(cmd.Context(), "/dao/proposals/"+args[0]+"/votes", governance.VoteRequest{Support: support})
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}
}

func executeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <proposal-id>",
		Short: "Execute a succeeded proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.post(cmd.Context(), "/dao/proposals/"+args[0]+"/execute", struct{}{})
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}
}

// getCommand builds a read only command, path maps the arguments to the api route
func getCommand(use, short string, nargs int, path func(args []string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromFlags()
			if err != nil {
				return err
			}

			out, err := c.get(cmd.Context(), path(args))
			if err != nil {
				return err
			}

			return printJSON(out)
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Client for a collector dao node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.url, "url", "http://localhost:3000", "url of the dao node")
	rootCmd.PersistentFlags().StringVar(&globalFlags.apiKey, "api-key", os.Getenv("DAO_API_KEY"), "api key of the dao node")
	rootCmd.PersistentFlags().StringVar(&globalFlags.key, "key", os.Getenv("DAO_KEY"), "hex private key requests are signed with")

	rootCmd.AddCommand(joinCommand())
	rootCmd.AddCommand(delegateCommand())
	rootCmd.AddCommand(proposeCommand())
	rootCmd.AddCommand(voteCommand())
	rootCmd.AddCommand(executeCommand())
	rootCmd.AddCommand(getCommand("state <proposal-id>", "Show the state of a proposal", 1, func(args []string) string {
		return "/dao/proposals/" + args[0] + "/state"
	}))
	rootCmd.AddCommand(getCommand("proposal <proposal-id>", "Show a proposal", 1, func(args []string) string {
		return "/dao/proposals/" + args[0]
	}))
	rootCmd.AddCommand(getCommand("receipt <proposal-id> <address>", "Show the ballot of a voter", 2, func(args []string) string {
		return "/dao/proposals/" + args[0] + "/receipts/" + args[1]
	}))
	rootCmd.AddCommand(getCommand("member <address>", "Show a member", 1, func(args []string) string {
		return "/dao/members/" + args[0]
	}))
	rootCmd.AddCommand(getCommand("treasury", "Show what the DAO holds", 0, func(args []string) string {
		return "/dao/treasury"
	}))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
