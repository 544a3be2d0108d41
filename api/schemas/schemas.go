package schemas

// -- Task Schemas --

// TaskKind identifies one of the sample-generator families. Per-task quotas in
// the run configuration are keyed by these values.
type TaskKind string

const (
	TaskClickDesktopIcon TaskKind = "click-desktop-icon"
	TaskClickTaskbarIcon TaskKind = "click-taskbar-icon"
	TaskIconListClick    TaskKind = "icon-list-click"
	TaskWaitLoading      TaskKind = "wait-loading"
)

// AllTaskKinds lists every registered task kind in a stable order.
func AllTaskKinds() []TaskKind {
	return []TaskKind{
		TaskClickDesktopIcon,
		TaskClickTaskbarIcon,
		TaskIconListClick,
		TaskWaitLoading,
	}
}

// -- Action Schemas --

// ActionKind is the interaction verb a training sample teaches.
type ActionKind string

const (
	ActionDoubleClick ActionKind = "double_click"
	ActionLeftClick   ActionKind = "left_click"
	ActionWait        ActionKind = "wait"
	ActionScroll      ActionKind = "scroll"
)

// Action is the ground-truth action descriptor attached to a sample.
// Coordinate values are unit coordinates in [0,1000]^2, normalized against the
// surface named by the owning sample's Surface field. A nil Coordinate means
// the action has no spatial target; it is never an all-zero placeholder.
type Action struct {
	Kind       ActionKind `json:"kind"`
	Coordinate *[2]int    `json:"coordinate,omitempty"`
	Tolerance  *[2]int    `json:"tolerance,omitempty"`
	// Duration is the wait time in seconds, only set for ActionWait.
	Duration *float64 `json:"duration,omitempty"`
}

// -- Sample Schemas --

// SplitTag marks which partition a sample was assigned to.
type SplitTag string

const (
	SplitTrain SplitTag = "train"
	SplitVal   SplitTag = "val"
	SplitTest  SplitTag = "test"
)

// TrainingSample is one prompt/action/image record. It is both the in-memory
// representation and the line format of the persisted JSONL indices.
type TrainingSample struct {
	ID     string   `json:"id"`
	Kind   TaskKind `json:"task_type"`
	Prompt string   `json:"prompt"`
	Action Action   `json:"action"`
	// Image is the path of the shipped screenshot, relative to the dataset root.
	Image string   `json:"image"`
	Split SplitTag `json:"split,omitempty"`
	// Surface names the rendered surface the coordinate was normalized against.
	// It must agree with the surface the shipped image was rendered at.
	Surface string `json:"surface"`
	// DisjointKey carries the provenance attribute used to keep the held-out
	// test partition disjoint from train and val.
	DisjointKey string `json:"disjoint_key"`
}

// HasSpatialTarget reports whether the sample carries a real coordinate.
func (s *TrainingSample) HasSpatialTarget() bool {
	return s.Action.Coordinate != nil
}
