package dto

// SubmitSkillRequest is the body of POST /skills.
type SubmitSkillRequest struct {
	Title          string `json:"title"`
	Provider       string `json:"provider"`
	CertificateURL string `json:"certificateUrl"`
}

// SkillDecisionRequest carries the reviewer's remarks. Remarks are mandatory on rejection.
type SkillDecisionRequest struct {
	Remarks string `json:"remarks"`
	Version int    `json:"version"`
}

// SkillQuery filters the reviewer listing.
type SkillQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}
