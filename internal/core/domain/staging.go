package domain

import "time"

type ItemSource string

const (
	SourceUpload ItemSource = "upload"
	SourceEmail  ItemSource = "email"
	SourceScan   ItemSource = "scan"
)

type PipelineStatus string

const (
	StatusQueued     PipelineStatus = "queued"
	StatusProcessing PipelineStatus = "processing"
	StatusSuccess    PipelineStatus = "success"
	StatusDuplicate  PipelineStatus = "duplicate"
	StatusError      PipelineStatus = "error"
)

// Terminal reports whether the pipeline is done with the item.
func (s PipelineStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusDuplicate || s == StatusError
}

// StagedItem is one content-addressed entry in the inbox. Its identity is
// the lowercase hex SHA-256 of the raw bytes; at most one entry exists per
// hash at any time.
type StagedItem struct {
	Hash             string          `json:"hash"`
	OriginalFilename string          `json:"original_filename"`
	Source           ItemSource      `json:"source"`
	ReceivedAt       time.Time       `json:"received_at"`
	Status           PipelineStatus  `json:"status"`
	ProgressMessage  string          `json:"progress_message,omitempty"`
	Result           *PipelineResult `json:"result,omitempty"`
}

// PipelineResult is the immutable outcome of one staged item's run.
// Exactly one exists per staged item once processing completes.
type PipelineResult struct {
	Status           PipelineStatus `json:"status"`
	Hash             string         `json:"hash"`
	OriginalFilename string         `json:"original_filename"`
	MimeType         string         `json:"mime_type,omitempty"`
	Extension        string         `json:"extension,omitempty"`
	ArtifactPath     string         `json:"artifact_path,omitempty"`
	TextLayerPath    string         `json:"text_layer_path,omitempty"`
	Prediction       Prediction     `json:"prediction"`
	DuplicateOf      string         `json:"duplicate_of,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
	CompletedAt      time.Time      `json:"completed_at"`
}
