package dto

// SubmitApplicationRequest is the payload for a new associate application.
type SubmitApplicationRequest struct {
	WorkEmail       string `json:"workEmail" validate:"required,email"`
	Expertise       string `json:"expertise" validate:"required"`
	ExperienceYears int    `json:"experienceYears" validate:"min=0,max=80"`
	Location        string `json:"location" validate:"required"`
}

// ApproveApplicationRequest carries the optional reviewer notes.
type ApproveApplicationRequest struct {
	Notes string `json:"notes"`
}

// RejectApplicationRequest carries the rejection reason and the reapply
// cooldown. The bound on CooldownDays is enforced here, at the edge; the
// workflow engine itself trusts the value it is handed.
type RejectApplicationRequest struct {
	Reason       string `json:"reason" validate:"required"`
	CooldownDays *int   `json:"cooldownDays" validate:"omitempty,min=0,max=365"`
}

// ApplicationQuery mirrors supported listing filters.
type ApplicationQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
