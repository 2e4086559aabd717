package cmd

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// Prompter asks the user for input on the terminal.
type Prompter interface {
	Text(label string) (string, error)
	Password(label string) (string, error)
	Select(label string, items []string) (int, string, error)
}

type terminalPrompter struct{}

func (terminalPrompter) Text(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Validate: notEmpty,
	}
	return p.Run()
}

func (terminalPrompter) Password(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: notEmpty,
	}
	return p.Run()
}

func (terminalPrompter) Select(label string, items []string) (int, string, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	return p.Run()
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}
