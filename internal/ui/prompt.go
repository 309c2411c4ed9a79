package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// interactive reports whether stdin is a terminal. Prompts cannot be
// answered when input is piped or redirected.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks a yes/no question. Cancelling the prompt counts as no,
// and so does a non-interactive stdin: scripted runs must pass --force
// (or equivalent) to answer yes.
func Confirm(title string) (bool, error) {
	if !interactive() {
		return false, nil
	}

	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("prompt: %w", err)
	}
	return ok, nil
}

// Input asks for a single line of text.
func Input(title string) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("cannot prompt for %q: stdin is not a terminal", title)
	}

	var value string
	err := huh.NewInput().
		Title(title).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return value, nil
}

// Password asks for a secret without echoing it.
func Password(title string) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("cannot prompt for %q: stdin is not a terminal", title)
	}

	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return value, nil
}
