// Package types contains the wire types shared between the automation core
// and the MCP server package.
package types

// Rect is an on-screen rectangle in device pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// ScreenNode is one text-bearing element captured from the accessibility tree.
type ScreenNode struct {
	Text        string `json:"text,omitempty"`
	Description string `json:"description,omitempty"`
	ClassName   string `json:"className"`
	Clickable   bool   `json:"clickable"`
	Bounds      Rect   `json:"bounds"`
}

// ScreenSnapshot is an immutable, bounded capture of the foreground screen.
// Nodes are in breadth-first traversal order so higher-salience elements
// survive the cap.
type ScreenSnapshot struct {
	ForegroundPackage string       `json:"foregroundPackage"`
	RootClassName     string       `json:"rootClassName"`
	Nodes             []ScreenNode `json:"nodes"`
}

// Checkpoint records expected vs actual screen state at a named pipeline
// step. Checkpoints are returned verbatim to callers for audit; flows decide
// to abort on derived booleans, never on the checkpoint itself.
type Checkpoint struct {
	Step            string   `json:"step"`
	ExpectedPackage string   `json:"expected_package"`
	ActualPackage   string   `json:"actual_package"`
	Matched         bool     `json:"matched_expected_package"`
	Highlights      []string `json:"highlights,omitempty"`
}

// LaunchableApp is one installed, launchable application.
type LaunchableApp struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
}

// AppMatch is a scored candidate from app resolution.
type AppMatch struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
	Score       int    `json:"score"`
}

// AppResolution is the outcome of resolving a package id or free-text app
// name against the installed set. Match is nil when nothing scored as a
// confident hit; Suggestions then carries up to five scored alternatives.
type AppResolution struct {
	Query       string     `json:"query"`
	Match       *AppMatch  `json:"match,omitempty"`
	Suggestions []AppMatch `json:"suggestions,omitempty"`
}

// UISearchRequest is the value object of hints and limits every
// search-driven flow converges on.
type UISearchRequest struct {
	Query           string   `json:"query"`
	ExpectedPackage string   `json:"expected_package"`
	MaxAttempts     int      `json:"max_attempts,omitempty"`
	SubmitSearch    bool     `json:"submit_search,omitempty"`
	ClosePopups     bool     `json:"close_popups,omitempty"`
	InputHints      []string `json:"input_hints,omitempty"`
	TriggerHints    []string `json:"trigger_hints,omitempty"`
	DismissHints    []string `json:"dismiss_hints,omitempty"`
	SubmitHints     []string `json:"submit_hints,omitempty"`
}

// UISearchExecution is the outcome of a generic UI search flow.
type UISearchExecution struct {
	Success         bool         `json:"success"`
	Typed           bool         `json:"typed"`
	QueryVisible    bool         `json:"queryVisible"`
	InputFound      bool         `json:"inputFound"`
	TriggerTapped   bool         `json:"triggerTapped"`
	PopupDismissed  bool         `json:"popupDismissed"`
	Submitted       bool         `json:"submitted"`
	ExpectedPackage string       `json:"expectedPackage"`
	ActualPackage   string       `json:"actualPackage"`
	Error           string       `json:"error,omitempty"`
	Checkpoints     []Checkpoint `json:"screen_checkpoints,omitempty"`
}

// SendMessageRequest asks the contact-safe messaging flow to deliver one
// message. AppType selects the WhatsApp variant: "personal", "business", or
// empty to auto-resolve. StrictContactMatch defaults to true when nil.
type SendMessageRequest struct {
	Contact            string `json:"contact"`
	Phone              string `json:"phone,omitempty"`
	Message            string `json:"message"`
	AppType            string `json:"app_type,omitempty"`
	StrictContactMatch *bool  `json:"strict_contact_match,omitempty"`
}

// SendMessageResult reports how far the messaging flow got. On any abort the
// checkpoint trail shows exactly which screen-state check failed.
type SendMessageResult struct {
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
	Package        string       `json:"package,omitempty"`
	ContactVisible bool         `json:"contactVisible"`
	MessageTyped   bool         `json:"messageTyped"`
	SendTapped     bool         `json:"sendTapped"`
	Checkpoints    []Checkpoint `json:"screen_checkpoints,omitempty"`
}

// WorkflowStep is one typed step of a multi-step workflow.
//
// Types: launch_app, search, tap, wait, swipe, type.
type WorkflowStep struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	OnError string `json:"onError,omitempty"` // "stop" (default) or "continue"

	// launch_app
	PackageName string `json:"packageName,omitempty"`

	// search
	Search *UISearchRequest `json:"search,omitempty"`

	// tap: either text (with occurrence) or coordinates
	Text       string `json:"text,omitempty"`
	Occurrence int    `json:"occurrence,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`

	// wait: fixed sleep or poll-until-text-visible
	DurationMs  int    `json:"durationMs,omitempty"`
	WaitForText string `json:"waitForText,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`

	// swipe
	Direction     string  `json:"direction,omitempty"`
	DistanceRatio float64 `json:"distanceRatio,omitempty"`

	// type
	Value string `json:"value,omitempty"`
}

// Workflow is an ordered sequence of steps with an overall deadline.
type Workflow struct {
	ID              string         `json:"id,omitempty"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Steps           []WorkflowStep `json:"steps"`
	TimeoutMs       int            `json:"timeoutMs,omitempty"`
	ContinueOnError bool           `json:"continueOnError,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
}

// StepResult is the structured outcome of one workflow step.
type StepResult struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// WorkflowRunResult aggregates per-step results for one workflow run.
type WorkflowRunResult struct {
	RunID      string       `json:"runId"`
	WorkflowID string       `json:"workflowId,omitempty"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
	Steps      []StepResult `json:"steps"`
	StartedAt  int64        `json:"startedAt"`
	FinishedAt int64        `json:"finishedAt"`
}
