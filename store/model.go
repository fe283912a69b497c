package store

import "time"

// TaskStatus is the small state set every vendor status maps into.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCanceled   TaskStatus = "canceled"
)

// TaskType identifies what a generation task produces.
type TaskType string

const (
	TaskTypeShotImage     TaskType = "shot_image"
	TaskTypeShotVideo     TaskType = "shot_video"
	TaskTypeSceneBatch    TaskType = "scene_batch"
	TaskTypeCharacterArt  TaskType = "character_art"
	TaskTypeScriptImport  TaskType = "script_import"
	TaskTypeVoiceNarrate  TaskType = "voice_narrate"
	TaskTypeExportProject TaskType = "export_project"
)

type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Logline   string    `json:"logline"`
	Style     string    `json:"style"`
	Script    string    `json:"script,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Character struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PromptFrag  string `json:"prompt_fragment"`
	SheetPath   string `json:"sheet_path,omitempty"`
}

type Scene struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Idx       int    `json:"idx"`
	Heading   string `json:"heading"`
	Summary   string `json:"summary"`
	Body      string `json:"body,omitempty"`
	Prompt    string `json:"prompt"`
	ImagePath string `json:"image_path,omitempty"`
}

type Shot struct {
	ID          string  `json:"id"`
	SceneID     string  `json:"scene_id"`
	ProjectID   string  `json:"project_id"`
	Idx         int     `json:"idx"`
	Size        string  `json:"size"`     // WIDE, MEDIUM, CLOSE, ...
	Movement    string  `json:"movement"` // STATIC, PAN, PUSH-IN, ...
	ImagePrompt string  `json:"image_prompt"`
	VideoPrompt string  `json:"video_prompt"`
	Narration   string  `json:"narration"`
	ImagePath   string  `json:"image_path,omitempty"`
	VideoPath   string  `json:"video_path,omitempty"`
	AudioPath   string  `json:"audio_path,omitempty"`
	DurationSec float64 `json:"duration_sec"`
}

type Task struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	ShotID     string     `json:"shot_id,omitempty"`
	Type       TaskType   `json:"type"`
	Status     TaskStatus `json:"status"`
	Progress   int        `json:"progress"`
	Message    string     `json:"message,omitempty"`
	ResultPath string     `json:"result_path,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Terminal reports whether a status can no longer change.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCanceled
}
