package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/theirongolddev/envelope/internal/model"
)

// errNotInteractive is returned when a prompt is needed but stdin is not a
// terminal.
var errNotInteractive = errors.New("input needed but stdin is not a terminal")

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// confirm asks a yes/no question. skip answers yes without asking.
func confirm(question string, skip bool) (bool, error) {
	if skip {
		return true, nil
	}
	if !interactive() {
		return false, fmt.Errorf("%w (pass --yes)", errNotInteractive)
	}
	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// pickEnvelope lets the user choose one of envs. ok is false when the user
// aborted.
func pickEnvelope(title string, envs []model.Envelope) (model.Envelope, bool, error) {
	if len(envs) == 0 {
		return model.Envelope{}, false, fmt.Errorf("%w: no envelopes; create one first", model.ErrValidation)
	}
	if !interactive() {
		return model.Envelope{}, false, fmt.Errorf("%w (pass --envelope)", errNotInteractive)
	}

	opts := make([]huh.Option[int64], len(envs))
	for i, e := range envs {
		opts[i] = huh.NewOption(e.Name, e.ID)
	}
	var id int64
	err := huh.NewSelect[int64]().
		Title(title).
		Options(opts...).
		Value(&id).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return model.Envelope{}, false, nil
	}
	if err != nil {
		return model.Envelope{}, false, err
	}
	for _, e := range envs {
		if e.ID == id {
			return e, true, nil
		}
	}
	return model.Envelope{}, false, nil
}
