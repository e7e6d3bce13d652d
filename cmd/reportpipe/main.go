// Command reportpipe runs a report request through the pipeline from the
// terminal, either directly with streamed progress, or through the job queue
// with status polling.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/demindx/reportpipe"
	"github.com/demindx/reportpipe/artifact"
	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"github.com/demindx/reportpipe/model/openai"
	"github.com/demindx/reportpipe/retrieval"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("REPORTPIPE")
	v.AutomaticEnv()
	v.SetDefault("model", "gpt-4.1")
	v.SetDefault("locale", "")
	v.SetDefault("output", "outputs")
	v.SetDefault("parallel", 4)
	v.SetDefault("runners", 3)

	cmd := &cobra.Command{
		Use:   "reportpipe \"<request>\"",
		Short: "Decompose a request, execute subtasks concurrently and merge the results into a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queued, _ := cmd.Flags().GetBool("queued")
			search, _ := cmd.Flags().GetBool("search")
			verbose, _ := cmd.Flags().GetBool("verbose")
			return run(cmd.Context(), v, args[0], queued, search, verbose)
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "OpenAI model id")
	flags.String("locale", "", "output locale override (BCP 47 tag)")
	flags.String("output", "", "directory for rendered reports")
	flags.Int("parallel", 0, "max concurrent subtasks per run (0 = unbounded)")
	flags.Int("runners", 0, "background runner pool size (queued mode)")
	flags.Bool("queued", false, "submit to the job queue and poll instead of streaming")
	flags.Bool("search", false, "ground subtasks with web search findings")
	flags.Bool("verbose", false, "log pipeline internals to stderr")
	for _, name := range []string{"model", "locale", "output", "parallel", "runners"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func run(ctx context.Context, v *viper.Viper, query string, queued, search, verbose bool) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	logger := logging.Logger(logging.NoOpLogger{})
	if verbose {
		logger = logging.NewSlogLogger(logging.LogLevelDebug, "text", os.Stderr)
	}

	llm := openai.New(func(o *openai.Options) {
		o.Model = v.GetString("model")
	})

	var retriever core.Retriever
	if search {
		retriever = retrieval.New(func(o *retrieval.Options) {
			o.Logger = logger
		})
	}

	rp := reportpipe.New(llm, func(o *reportpipe.Options) {
		o.Retriever = retriever
		o.ArtifactStore = artifact.NewFileStore(v.GetString("output"))
		o.MaxInFlight = v.GetInt64("parallel")
		o.QueueRunners = v.GetInt("runners")
		o.Logger = logger
	})

	req := core.Request{Query: query, Locale: v.GetString("locale")}
	if queued {
		return runQueued(ctx, rp, req)
	}
	return runDirect(ctx, rp, req)
}

// runDirect streams progress events while the run executes.
func runDirect(ctx context.Context, rp *reportpipe.ReportPipe, req core.Request) error {
	runID, events, errs, err := rp.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s\n", runID)

	for ev := range events {
		fmt.Printf("  [%s] %s\n", ev.Kind, ev.Message)
	}
	if err := <-errs; err != nil {
		return err
	}
	return nil
}

// runQueued submits the run and polls its status until terminal.
func runQueued(ctx context.Context, rp *reportpipe.ReportPipe, req core.Request) error {
	rp.Start(ctx)
	defer rp.Close()

	runID, err := rp.Submit(req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s submitted\n", runID)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := core.RunStatus("")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status := rp.Status(runID)
			if status != last {
				fmt.Printf("  status: %s\n", status)
				last = status
			}
			if !status.Terminal() {
				continue
			}
			art, err := rp.Result(runID)
			if err != nil {
				return err
			}
			fmt.Printf("report: %s\n", art.Location)
			return nil
		}
	}
}
