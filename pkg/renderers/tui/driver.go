package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// PromptDriver abstracts the interactive prompts the renderer issues, so
// tests can script a session and other front ends can reuse the fill flow.
type PromptDriver interface {
	Input(cfg InputConfig) (string, error)
	Password(cfg InputConfig) (string, error)
	TextArea(cfg InputConfig) (string, error)
	Confirm(cfg ConfirmConfig) (bool, error)
	Select(cfg SelectConfig) (string, error)
	Info(message string)
}

// InputConfig configures a free-form prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message string
	Options []string
	Default string
	Help    string
}

// NewSurveyDriver returns the terminal-backed driver used outside of tests.
func NewSurveyDriver() PromptDriver {
	return &surveyDriver{}
}

type surveyDriver struct{}

func (d *surveyDriver) Input(cfg InputConfig) (string, error) {
	var answer string
	prompt := &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Password(cfg InputConfig) (string, error) {
	var answer string
	prompt := &survey.Password{Message: cfg.Message, Help: cfg.Help}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) TextArea(cfg InputConfig) (string, error) {
	var answer string
	prompt := &survey.Multiline{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Confirm(cfg ConfirmConfig) (bool, error) {
	answer := cfg.Default
	prompt := &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Select(cfg SelectConfig) (string, error) {
	var answer string
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.Default != "" {
		prompt.Default = cfg.Default
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

// Info writes to stderr so piped payload output stays clean.
func (d *surveyDriver) Info(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
