package controller

import (
	"errors"
	"fmt"
)

// ActionType names a user interaction. Every state change goes through one.
type ActionType string

const (
	ActionTextInput        ActionType = "text_input"
	ActionNextSuggestion   ActionType = "next_suggestion"
	ActionPrevSuggestion   ActionType = "prev_suggestion"
	ActionHighlight        ActionType = "highlight"
	ActionEnter            ActionType = "enter"
	ActionSubmit           ActionType = "submit"
	ActionSelect           ActionType = "select"
	ActionSelectGeneration ActionType = "select_generation"
	ActionClose            ActionType = "close"
	ActionSelectForm       ActionType = "select_form"
	ActionRetry            ActionType = "retry"
)

// ErrUnknownAction is returned by Dispatch for an unrecognized ActionType.
var ErrUnknownAction = errors.New("unknown action")

// Action is one dispatched interaction. Only the field relevant to Type is read:
// Text for text_input, Name for select/select_form, Generation for
// select_generation, Index for highlight.
type Action struct {
	Type       ActionType `json:"type" binding:"required"`
	Text       string     `json:"text,omitempty"`
	Name       string     `json:"name,omitempty"`
	Generation string     `json:"generation,omitempty"`
	Index      int        `json:"index,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionTextInput:
		return fmt.Sprintf("%s(%q)", a.Type, a.Text)
	case ActionSelect, ActionSelectForm:
		return fmt.Sprintf("%s(%s)", a.Type, a.Name)
	case ActionSelectGeneration:
		return fmt.Sprintf("%s(%s)", a.Type, a.Generation)
	case ActionHighlight:
		return fmt.Sprintf("%s(%d)", a.Type, a.Index)
	default:
		return string(a.Type)
	}
}

// Convenience constructors.

func TextInput(text string) Action  { return Action{Type: ActionTextInput, Text: text} }
func NextSuggestion() Action        { return Action{Type: ActionNextSuggestion} }
func PrevSuggestion() Action        { return Action{Type: ActionPrevSuggestion} }
func Highlight(i int) Action        { return Action{Type: ActionHighlight, Index: i} }
func Enter() Action                 { return Action{Type: ActionEnter} }
func Submit() Action                { return Action{Type: ActionSubmit} }
func Select(name string) Action     { return Action{Type: ActionSelect, Name: name} }
func SelectForm(name string) Action { return Action{Type: ActionSelectForm, Name: name} }
func Close() Action                 { return Action{Type: ActionClose} }
func Retry() Action                 { return Action{Type: ActionRetry} }

func SelectGeneration(gen string) Action {
	return Action{Type: ActionSelectGeneration, Generation: gen}
}
