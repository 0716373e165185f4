package dto

// CleanupPreviewResponse 身份漂移清理预览
type CleanupPreviewResponse struct {
	PersonID   string   `json:"person_id"`
	Name       string   `json:"name"`
	Canonical  string   `json:"canonical_key"`
	StrayKeys  []string `json:"stray_keys"`
	StrayCount int      `json:"stray_count"`
}

// CleanupApplyRequest 执行合并
type CleanupApplyRequest struct {
	PersonIDs []string `json:"person_ids" binding:"omitempty,dive,required"` // 为空则合并全部
	DryRun    bool     `json:"dry_run"`
}

// CleanupApplyResponse 合并结果
type CleanupApplyResponse struct {
	Merged  int           `json:"merged"`
	Deleted int           `json:"deleted"`
	Skipped int           `json:"skipped"`
	Details []BulkFailure `json:"failures,omitempty"`
}

