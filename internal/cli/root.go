// Package cli wires the interactive console: it assembles the perception,
// planning, execution and orchestration components and feeds typed tasks
// into the primary agent's mailbox.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JamesCampbellJr/Project-Chimera/internal/agent"
	"github.com/JamesCampbellJr/Project-Chimera/internal/config"
	"github.com/JamesCampbellJr/Project-Chimera/internal/display"
	"github.com/JamesCampbellJr/Project-Chimera/internal/executor"
	"github.com/JamesCampbellJr/Project-Chimera/internal/input"
	"github.com/JamesCampbellJr/Project-Chimera/internal/listener"
	"github.com/JamesCampbellJr/Project-Chimera/internal/llmclient"
	"github.com/JamesCampbellJr/Project-Chimera/internal/orchestrator"
	"github.com/JamesCampbellJr/Project-Chimera/internal/perception"
	"github.com/JamesCampbellJr/Project-Chimera/internal/planner"
	"github.com/JamesCampbellJr/Project-Chimera/internal/skills"
)

func Execute(cfg config.Config, log zerolog.Logger) error {
	root := newRootCmd(cfg, log)
	root.AddCommand(newSkillsCmd(cfg))
	return root.Execute()
}

func newRootCmd(cfg config.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "chimera",
		Short: "An autonomous desktop agent that can see and control your computer",
		Long:  `An autonomous assistant that captures the screen, plans with an LLM, and drives the desktop to accomplish tasks. Delegated subtasks run on specialized background agents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cfg, log)
		},
	}
}

func newSkillsCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "skills",
		Short: "List skills learned by tutor agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := skills.NewStore(cfg.SkillsDir)
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No skills learned yet.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// tutorFactory builds one-shot tutor agents carrying the tutor role
// descriptor, regardless of the exact role string a plan asked for.
func tutorFactory(model agent.SkillSynthesizer, researcher agent.TopicResearcher, store *skills.Store, reporter agent.ResultReporter, log zerolog.Logger) orchestrator.Factory {
	return func(role, task string) *agent.Agent {
		return agent.NewTutorAgent(config.TutorRole, agent.TutorDeps{
			Model:      model,
			Researcher: researcher,
			Store:      store,
			Reporter:   reporter,
			Log:        log,
		})
	}
}

func runConsole(cfg config.Config, log zerolog.Logger) error {
	if err := listener.Init(); err != nil {
		return fmt.Errorf("init terminal input: %w", err)
	}
	defer listener.Close()

	llm, err := llmclient.New(llmclient.Config{
		Backend:      cfg.LLMBackend,
		Model:        cfg.Model,
		VisionModel:  cfg.VisionModel,
		OllamaHost:   cfg.OllamaHost,
		GeminiAPIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return fmt.Errorf("init LLM client: %w", err)
	}
	log.Info().Str("backend", llm.Backend()).Msg("LLM client ready")

	perc := perception.NewVLM(perception.NewExecCapturer(cfg.CaptureCommand), llm, log)

	var driver input.Driver
	if cfg.InputDryRun {
		driver = input.NewNopDriver(log)
		listener.AsyncPrintln("Dry-run mode: input actions will be logged, not performed.")
	} else {
		driver = input.NewXDoDriver(log)
	}

	// The feeder is the only Readline caller; the console loop below routes
	// each line to either task submission or a pending confirmation.
	linesCh := make(chan string)
	go func() {
		defer close(linesCh)
		for {
			line, ok := listener.GetInput()
			if !ok {
				return
			}
			linesCh <- line
		}
	}()
	con := newConsole(linesCh, listener.AsyncPrintln, listener.SetPrompt)

	exec := executor.New(driver, log,
		executor.WithStepTimeout(time.Duration(cfg.StepTimeoutMs)*time.Millisecond),
		executor.WithConfirm(con.confirmPlan),
	)

	orch := orchestrator.New(log)
	store := skills.NewStore(cfg.SkillsDir)
	researcher := agent.NewResearcher(log)
	orch.RegisterRole("tutor", tutorFactory(llm, researcher, store, orch, log))

	cycle := agent.NewTaskCycle(config.PrimaryRole, perc, planner.NewLLMPlanner(llm, log), exec, orch, log,
		agent.WithMaxIterations(cfg.MaxIterations))
	primary := agent.New(config.PrimaryRole, cycle,
		agent.WithLogger(log),
		agent.WithResultFunc(func(res agent.TaskResult) {
			listener.AsyncPrintln(display.FormatResult(res))
		}))
	con.submit = primary.Enqueue

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		listener.AsyncPrintln("Shutting down...")
		orch.StopAll()
		cancel()
		listener.Close()
	}()

	done := make(chan error, 1)
	go func() { done <- orch.Start(ctx, primary) }()

	listener.AsyncPrintln("Hello! What should I do? (type 'exit' or press Ctrl+C to quit)")
	con.loop()

	orch.StopAll()
	err = <-done
	listener.AsyncPrintln("Goodbye!")
	return err
}
