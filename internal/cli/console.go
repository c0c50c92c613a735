package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JamesCampbellJr/Project-Chimera/internal/agent"
	"github.com/JamesCampbellJr/Project-Chimera/internal/display"
	"github.com/JamesCampbellJr/Project-Chimera/internal/plan"
)

// confirmRequest carries a yes/no question from an executing agent to the
// console goroutine, which owns the terminal reader.
type confirmRequest struct {
	prompt string
	reply  chan bool
}

// console multiplexes the user's input lines between task submission and
// confirmation prompts. Exactly one goroutine (loop) consumes lines; agents
// needing a confirmation hand their question over and wait for the routed
// answer instead of reading the terminal themselves.
type console struct {
	lines     <-chan string
	confirms  chan confirmRequest
	done      chan struct{}
	print     func(string)
	setPrompt func(string)
	submit    func(agent.TaskRequest) error
}

func newConsole(lines <-chan string, print, setPrompt func(string)) *console {
	return &console{
		lines:     lines,
		confirms:  make(chan confirmRequest),
		done:      make(chan struct{}),
		print:     print,
		setPrompt: setPrompt,
	}
}

// loop runs on the console goroutine until the user exits or the terminal
// closes.
func (c *console) loop() {
	defer close(c.done)
	for {
		select {
		case req := <-c.confirms:
			req.reply <- c.promptYesNo(req.prompt)
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			if strings.ToLower(line) == "exit" {
				return
			}
			if line == "" {
				continue
			}
			req := agent.TaskRequest{ID: uuid.New().String()[:8], Text: line}
			if err := c.submit(req); err != nil {
				c.print(fmt.Sprintf("[Task %s REJECTED] %v", req.ID, err))
				continue
			}
			c.print(fmt.Sprintf("[Task %s QUEUED]", req.ID))
		}
	}
}

// promptYesNo consumes lines as answers until one parses. Runs on the
// console goroutine only.
func (c *console) promptYesNo(prompt string) bool {
	c.print(prompt)
	c.setPrompt("[y/n] > ")
	defer c.setPrompt("> ")
	for {
		line, ok := <-c.lines
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		c.print("Please answer y/n.")
	}
}

// confirmPlan is safe to call from any agent goroutine; the terminal read
// itself happens on the console goroutine. Once the console is gone the
// answer is always no.
func (c *console) confirmPlan(p *plan.Plan) bool {
	req := confirmRequest{
		prompt: display.FormatPlan(p) + "\nThis plan runs shell commands. Execute it?",
		reply:  make(chan bool, 1),
	}
	select {
	case c.confirms <- req:
	case <-c.done:
		return false
	}
	select {
	case answer := <-req.reply:
		return answer
	case <-c.done:
		return false
	}
}
