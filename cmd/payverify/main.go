package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajebo/storefront-api/poller"
)

var Version = "dev"

// errPaymentFailed makes the process exit non-zero without printing twice.
var errPaymentFailed = errors.New("payment failed")

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !errors.Is(err, errPaymentFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payverify",
		Short: "Poll the storefront until a Paystack payment settles",
		Long: `Calls the storefront verify endpoint for a payment reference,
backing off between attempts, and prints every state change.

Exits 1 when the payment failed. A payment still pending after the
last attempt exits 0 with a message to refresh later.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runVerify,
	}

	cmd.Flags().String("base-url", "http://localhost:8080", "Storefront API base URL")
	cmd.Flags().StringP("reference", "r", "", "Payment reference from the Paystack redirect")
	cmd.Flags().IntP("attempts", "n", poller.DefaultMaxAttempts, "Maximum verify attempts")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	baseURL, _ := cmd.Flags().GetString("base-url")
	reference, _ := cmd.Flags().GetString("reference")
	attempts, _ := cmd.Flags().GetInt("attempts")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := poller.New(poller.NewHTTPVerifier(baseURL, nil), poller.WithMaxAttempts(attempts))
	return verify(ctx, p, reference, cmd.OutOrStdout())
}

func verify(ctx context.Context, p *poller.Poller, reference string, out io.Writer) error {
	final, err := p.Run(ctx, reference, func(u poller.Update) {
		printUpdate(out, u)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}
	if final.State == poller.StateFailed {
		return errPaymentFailed
	}
	return nil
}

func printUpdate(w io.Writer, u poller.Update) {
	switch {
	case u.Message == "":
		fmt.Fprintf(w, "[%d] %s\n", u.Attempt, u.State)
	default:
		fmt.Fprintf(w, "[%d] %s: %s\n", u.Attempt, u.State, u.Message)
	}
}
