package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roasbeef/corert/internal/corert/actor"
	"github.com/roasbeef/corert/internal/corert/codec"
	"github.com/roasbeef/corert/internal/corert/future"
	"github.com/roasbeef/corert/internal/corert/journal"
	"github.com/roasbeef/corert/internal/corert/pool"
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Decode jobs from a file and run them through a worker pool",
	Long: `submit reads one or more values in the runtime's serialization
format from the given file (or stdin if omitted), sends each to a single
actor running on a fresh pool, and prints the echoed results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	src, err := readSource(args)
	if err != nil {
		return err
	}

	jobs, err := codec.DecodeAll(src)
	if err != nil {
		return fmt.Errorf("decode jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	var jrnl *journal.Store
	if journalPath != "" {
		jrnl, err = journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jrnl.Close()

		if err := recoverPending(cmd.Context(), jrnl); err != nil {
			return fmt.Errorf("recover pending journal entries: %w", err)
		}
	}

	opts := []pool.Option{pool.WithName("corertctl")}
	if maxThreads > 0 {
		opts = append(opts, pool.WithMaxThreads(maxThreads))
	}
	if maxQueue > 0 {
		opts = append(opts, pool.WithMaxQueue(maxQueue))
	}

	p, err := pool.New(opts...)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	echoer, err := actor.New[codec.Value, codec.Value](p, func(_ context.Context, msg codec.Value) (codec.Value, error) {
		return msg, nil
	}, actor.WithName[codec.Value, codec.Value]("echo"))
	if err != nil {
		return fmt.Errorf("create actor: %w", err)
	}

	type pending struct {
		workID string
		fut    *future.Future[codec.Value]
	}

	futs := make([]pending, 0, len(jobs))
	for _, job := range jobs {
		workID := uuid.NewString()
		if jrnl != nil {
			var buf bytes.Buffer
			if err := codec.Encode(&buf, job); err != nil {
				return fmt.Errorf("encode job for journal: %w", err)
			}
			entry := journal.Entry{
				WorkID:     workID,
				DeadlineNs: 0,
				Payload:    buf.Bytes(),
			}
			if err := jrnl.Put(cmd.Context(), entry, 0); err != nil {
				return fmt.Errorf("journal job %s: %w", workID, err)
			}
		}

		f, err := echoer.Send(job)
		if err != nil {
			return fmt.Errorf("send job: %w", err)
		}
		futs = append(futs, pending{workID: workID, fut: f})
	}

	timeout := 10 * time.Second
	for _, pd := range futs {
		v, err := pd.fut.Get(&timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "job failed: %v\n", err)
			continue
		}
		if err := printResult(v); err != nil {
			return err
		}

		if jrnl != nil {
			if err := jrnl.Remove(cmd.Context(), pd.workID); err != nil {
				return fmt.Errorf("journal remove %s: %w", pd.workID, err)
			}
		}
	}

	p.Stop()
	if _, err := p.Join(&timeout); err != nil {
		return fmt.Errorf("join pool: %w", err)
	}
	return nil
}

// printResult writes v to stdout in the format selected by --format: "text"
// uses Value.String's human-readable diagnostic form, "codec" round-trips
// through the wire encoder.
func printResult(v codec.Value) error {
	switch outputFormat {
	case "codec":
		if err := codec.Encode(os.Stdout, v); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println()
	default:
		fmt.Println(v.String())
	}
	return nil
}

// recoverPending reports (and drops) any journal entries left over from a
// run that crashed before reaching its matching Remove, so an operator
// notices undelivered jobs instead of the journal silently growing.
func recoverPending(ctx context.Context, jrnl *journal.Store) error {
	entries, err := jrnl.LoadPending(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		v, err := codec.DecodeAll(string(e.Payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "recovered job %s: undecodable payload: %v\n", e.WorkID, err)
		} else {
			fmt.Fprintf(os.Stderr, "recovered undelivered job %s from previous run: %v\n", e.WorkID, v)
		}
		if err := jrnl.Remove(ctx, e.WorkID); err != nil {
			return fmt.Errorf("drop recovered entry %s: %w", e.WorkID, err)
		}
	}
	return nil
}

func readSource(args []string) (string, error) {
	if len(args) == 0 {
		b, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}
