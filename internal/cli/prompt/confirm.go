// Package prompt wraps promptui for the yes/no confirmations the CLI
// asks before kicking off long-running operations.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err represents a user abort.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort)
}

// Confirm asks a yes/no question and reports the answer. An empty
// response picks defaultYes. Ctrl+C surfaces as ErrAborted.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	answer, err := (&promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
	}).Run()

	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		return false, ErrAborted
	case errors.Is(err, promptui.ErrAbort):
		// promptui classifies an explicit "n" as ErrAbort.
		return false, nil
	case err != nil:
		if answer == "" {
			return defaultYes, nil
		}
		return false, err
	}

	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce skips the prompt when force is set, for
// non-interactive use.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}
