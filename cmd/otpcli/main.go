// Command otpcli walks through email verification against a running API:
// it requests a code, reads the code from the terminal, and offers a resend
// once the countdown has run out.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/runease-api/internal/application/workflow"
	"github.com/runease-api/internal/client"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/pkg/emailaddr"
	"github.com/runease-api/internal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		apiURL = flag.String("api", envOr("RUNEASE_API_URL", "http://localhost:5000"), "base URL of the RunEase API")
		email  = flag.String("email", "", "email address to verify")
		window = flag.Duration("window", 5*time.Minute, "resend countdown, normally the server's OTP_TTL")
		send   = flag.Bool("send", true, "request a code before prompting")
	)
	flag.Parse()

	lg := logger.New(envOr("LOG_LEVEL", "warn"), "console", "")

	addr := emailaddr.Normalize(*email)
	if !emailaddr.Valid(addr) {
		fmt.Fprintln(os.Stderr, "usage: otpcli -email you@example.com [-api URL] [-window 5m]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(*apiURL)
	if err := api.Health(ctx); err != nil {
		lg.Error().Err(err).Str("api", *apiURL).Msg("API is not reachable")
		os.Exit(1)
	}

	wf := workflow.New(addr, *window, api, api)
	if *send && !start(ctx, wf, os.Stdout) {
		os.Exit(1)
	}

	if err := run(ctx, wf, os.Stdin, os.Stdout); err != nil {
		lg.Error().Err(err).Msg("verification aborted")
		os.Exit(1)
	}
}

// start requests the first code and reports whether prompting for it makes
// sense. Unknown or already verified addresses end the session.
func start(ctx context.Context, wf *workflow.Workflow, out io.Writer) bool {
	err := wf.Start(ctx)
	switch {
	case err == nil:
		fmt.Fprintf(out, "A %d-digit code was sent to %s.\n", workflow.CodeLength, wf.Email())
		return true
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(out, "No account is registered with this email.")
		return false
	case errors.Is(err, domain.ErrConflict):
		fmt.Fprintln(out, workflow.Message(err))
		return false
	default:
		fmt.Fprintln(out, workflow.Message(err))
		return true
	}
}

// run reads codes and commands line by line until the email is verified,
// the input ends or ctx is cancelled.
func run(ctx context.Context, wf *workflow.Workflow, in io.Reader, out io.Writer) error {
	stopCountdown := startCountdown(ctx, wf, out)
	defer func() { stopCountdown() }()

	lines := bufio.NewScanner(in)
	for !wf.Verified() {
		fmt.Fprintf(out, "Code (r = resend, q = quit) [%s]: ", countdownLabel(wf))
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return err
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch cmd := strings.TrimSpace(lines.Text()); strings.ToLower(cmd) {
		case "q", "quit":
			return nil
		case "r", "resend":
			if err := wf.Resend(ctx); err != nil {
				fmt.Fprintln(out, workflow.Message(err))
				continue
			}
			fmt.Fprintln(out, "A new code is on its way.")
			stopCountdown()
			stopCountdown = startCountdown(ctx, wf, out)
		default:
			wf.SetCode(cmd)
			err := wf.Submit(ctx)
			fmt.Fprintln(out, workflow.Message(err))
		}
	}
	return nil
}

// startCountdown ticks the workflow's countdown in the background until the
// returned stop func is called.
func startCountdown(ctx context.Context, wf *workflow.Workflow, out io.Writer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		wf.Countdown().Run(ctx, func(left time.Duration) {
			if left == 0 && !wf.Verified() {
				fmt.Fprintln(out, "\nYou can request a new code now (r).")
			}
		})
	}()
	return func() {
		cancel()
		<-done
	}
}

func countdownLabel(wf *workflow.Workflow) string {
	if wf.CanResend() {
		return "resend available"
	}
	return fmt.Sprintf("resend in %s", wf.Countdown().Remaining())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
