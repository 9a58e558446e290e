package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PromptYesNo asks a yes/no question on stdin/stdout, used by commands that
// take an irreversible action (delete) to confirm before proceeding. Falls
// back to defaultYes when stdout isn't a terminal, so scripted/non-interactive
// invocations never block.
func PromptYesNo(question string, defaultYes bool) bool {
	var input string
	var prompt string

	if defaultYes {
		prompt = fmt.Sprintf("%s [Y/n] ", question)
	} else {
		prompt = fmt.Sprintf("%s [y/N] ", question)
	}

	// In non-interactive mode (e.g., CI/script), return default
	if !IsTerminal() {
		fmt.Printf("%s (non-interactive, defaulting to %t)\n", prompt, defaultYes)
		return defaultYes
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		// On error (e.g., EOF), default
		fmt.Printf("(error reading input, defaulting to %t)\n", defaultYes)
		return defaultYes
	}

	input = strings.ToLower(strings.TrimSpace(line))

	if input == "y" || input == "yes" {
		return true
	}
	if input == "n" || input == "no" {
		return false
	}

	// Default if empty or invalid input
	return defaultYes
}

// Prompt asks for a single line of free-form string input, falling back to
// defaultValue outside a terminal.
func Prompt(question, defaultValue string) string {
	var input string
	prompt := fmt.Sprintf("%s (default: %q): ", question, defaultValue)

	if !IsTerminal() {
		fmt.Printf("%s (non-interactive, defaulting to %q)\n", prompt, defaultValue)
		return defaultValue
	}

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Printf("(error reading input, defaulting to %q)\n", defaultValue)
		return defaultValue
	}

	input = strings.TrimSpace(line)
	if input == "" {
		return defaultValue
	}
	return input
}
