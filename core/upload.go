package core

// UploadStage is the client-side position of an upload job.
type UploadStage string

const (
	StageIdle       UploadStage = "idle"
	StageUploading  UploadStage = "uploading"
	StageProcessing UploadStage = "processing"
	StageReady      UploadStage = "ready"
	StageFailed     UploadStage = "failed"
)

// Terminal reports whether the stage can no longer change without a reset.
func (s UploadStage) Terminal() bool {
	return s == StageReady || s == StageFailed
}

// UploadJob is the observable state of one upload driven by the pipeline.
// Progress is only meaningful while the stage is uploading or processing.
type UploadJob struct {
	Stage    UploadStage
	Progress int    // 0-100
	VideoID  string // Known as soon as the upload is registered
	Err      string // Non-empty exactly when Stage == StageFailed
}

// IdleJob is the state a reset returns to.
func IdleJob() UploadJob {
	return UploadJob{Stage: StageIdle}
}
