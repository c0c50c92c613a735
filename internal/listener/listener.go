// Package listener wraps the interactive terminal so background agents can
// print above the prompt without mangling the current input line.
package listener

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var (
	rl *readline.Instance
	mu sync.Mutex
)

func Init() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func Close() {
	if rl != nil {
		_ = rl.Close()
	}
}

// GetInput blocks for one line of user input. The second return is false
// once the terminal is closed or interrupted.
func GetInput() (string, bool) {
	if rl == nil {
		return "", false
	}
	line, err := rl.Readline()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// AsyncPrintln prints a line above the prompt and redraws it; safe to call
// from any goroutine.
func AsyncPrintln(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}

// SetPrompt swaps the prompt text and redraws it. The actual reading still
// happens through GetInput; only one goroutine may call that.
func SetPrompt(prompt string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		return
	}
	rl.SetPrompt(prompt)
	rl.Refresh()
}
