package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ActionType identifies the kind of browser operation an Action performs.
type ActionType string

const (
	ActionSystemNavigate ActionType = "System_Navigate"
	ActionNavigate       ActionType = "navigate"
	ActionMouseDown      ActionType = "mousedown"
	ActionChange         ActionType = "change"
	ActionHover          ActionType = "hover"
	ActionScroll         ActionType = "scroll"
	ActionFileSelect     ActionType = "fileSelect"
	ActionDragStart      ActionType = "dragstart"
	ActionDragEnd        ActionType = "dragend"

	ActionKeyEnter      ActionType = "Enter"
	ActionKeyTab        ActionType = "Tab"
	ActionKeyArrowUp    ActionType = "ArrowUp"
	ActionKeyArrowDown  ActionType = "ArrowDown"
	ActionKeyArrowLeft  ActionType = "ArrowLeft"
	ActionKeyArrowRight ActionType = "ArrowRight"
	ActionKeyEscape     ActionType = "Escape"
)

func (t ActionType) String() string { return string(t) }

// keyActionTypes holds every ActionType that represents a keyboard key
// press rather than a named operation.
var keyActionTypes = map[ActionType]string{
	ActionKeyEnter:      "Enter",
	ActionKeyTab:        "Tab",
	ActionKeyArrowUp:    "ArrowUp",
	ActionKeyArrowDown:  "ArrowDown",
	ActionKeyArrowLeft:  "ArrowLeft",
	ActionKeyArrowRight: "ArrowRight",
	ActionKeyEscape:     "Escape",
}

// IsKeyPress reports whether t names a keyboard key rather than a
// dedicated action kind.
func (t ActionType) IsKeyPress() bool {
	_, ok := keyActionTypes[t]
	return ok
}

// AssertionKind identifies the supported post-action assertion checks.
type AssertionKind string

const (
	AssertionValidEmail      AssertionKind = "ValidEmail"
	AssertionFormHasValue    AssertionKind = "formHasValue"
	AssertionPageHasTitle    AssertionKind = "pageHasTitle"
	AssertionPageHasText     AssertionKind = "pageHasText"
	AssertionElementHasText  AssertionKind = "elementHasText"
	AssertionElementVisible  AssertionKind = "elementIsVisible"
	AssertionDownloadStarted AssertionKind = "downloadStarted"
)

// AssertionSpec is the expected value a declared assertion checks
// against; AssertionEntry pairs it with its kind.
type AssertionSpec struct {
	Value string `json:"value"`
}

// AssertionEntry pairs an assertion kind with its spec, preserving the
// declaration order a JSON object's keys carried on the wire.
type AssertionEntry struct {
	Kind AssertionKind
	Spec AssertionSpec
}

// AssertionSet is the ordered assertion map attached to an Action. The
// Assertion Evaluator iterates it in declared order and stops at the
// first failure, which requires this order to survive JSON
// decoding — a plain Go map does not preserve it.
type AssertionSet []AssertionEntry

// Lookup returns the spec for kind and whether it was declared.
func (s AssertionSet) Lookup(kind AssertionKind) (AssertionSpec, bool) {
	for _, e := range s {
		if e.Kind == kind {
			return e.Spec, true
		}
	}
	return AssertionSpec{}, false
}

// UnmarshalJSON decodes {"kind": {"value": "..."}, ...} token by token so
// key order is preserved.
func (s *AssertionSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("entity: AssertionSet expects a JSON object")
	}

	var out AssertionSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var spec AssertionSpec
		if err := dec.Decode(&spec); err != nil {
			return err
		}
		out = append(out, AssertionEntry{Kind: AssertionKind(key), Spec: spec})
	}
	*s = out
	return nil
}

// MarshalJSON re-encodes the set as a JSON object in declaration order.
func (s AssertionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(string(e.Kind))
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(e.Spec)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IframeIdentifier names the child frame an action targets when
// IsTopFrame is false.
type IframeIdentifier struct {
	Src string `json:"src"`
}

// StorageData describes a file to upload for a fileSelect action. Content
// is a data URL ("data:<mime>;base64,<payload>"); only the payload after
// the first comma is meaningful.
type StorageData struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ElementDescriptor identifies a DOM element across runs. UniqueSelector
// and XPath are resolution hints; Value/TextContent are snapshots taken at
// authoring time and consumed only by non-DOM assertions.
type ElementDescriptor struct {
	UniqueSelector string   `json:"uniqueSelector,omitempty"`
	XPath          []string `json:"xpath,omitempty"`
	IsAlert        bool     `json:"isAlert,omitempty"`
	Value          string   `json:"value,omitempty"`
	TextContent    string   `json:"textContent,omitempty"`
}

// VariableDescriptor names a value generator (or a fallback literal) used
// to fill a change action's input.
type VariableDescriptor struct {
	Name   string `json:"name"`
	Length int    `json:"length,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Action is a single declarative step in a TestCase.
type Action struct {
	Type             ActionType                      `json:"type"`
	Sequence         int                              `json:"sequence,omitempty"`
	Description      string                           `json:"description,omitempty"`
	Element          *ElementDescriptor               `json:"element,omitempty"`
	IsTopFrame       *bool                            `json:"isTopFrame,omitempty"`
	IframeIdentifier *IframeIdentifier                `json:"iframeIdentifier,omitempty"`
	URL              string                           `json:"url,omitempty"`
	Value            string                           `json:"value,omitempty"`
	Variable         *VariableDescriptor              `json:"variable,omitempty"`
	ScrollX          int                              `json:"scrollX,omitempty"`
	ScrollY          int                              `json:"scrollY,omitempty"`
	ContainerXPath   string                           `json:"containerXPath,omitempty"`
	StorageData      *StorageData                     `json:"storageData,omitempty"`
	DropTarget       *ElementDescriptor               `json:"dropTarget,omitempty"`
	Wait             *float64                         `json:"wait,omitempty"`
	Assertions       AssertionSet                     `json:"assertions,omitempty"`
}

// EffectiveSequence returns Sequence, falling back to idx+1 (0-based idx)
// when the action carries no explicit ordinal.
func (a Action) EffectiveSequence(idx int) int {
	if a.Sequence > 0 {
		return a.Sequence
	}
	return idx + 1
}

// EffectiveDescription returns Description, falling back to the action's
// type name.
func (a Action) EffectiveDescription() string {
	if a.Description != "" {
		return a.Description
	}
	return a.Type.String()
}

// TopFrame reports whether the action targets the top page (the default)
// rather than a named child iframe.
func (a Action) TopFrame() bool {
	if a.IsTopFrame == nil {
		return true
	}
	return *a.IsTopFrame
}

// WaitSeconds returns the post-step delay, defaulting to one second.
func (a Action) WaitSeconds() float64 {
	if a.Wait == nil {
		return 1
	}
	return *a.Wait
}

// TestCase is a URL plus an ordered sequence of actions. It is read-only
// to the core: fetched once from the catalog and never mutated.
type TestCase struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Actions   []Action  `json:"actions"`
	ModuleID  string    `json:"moduleId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
