package dto

// CreateEvaluationRequest is the payload for a new physical evaluation
// request addressed to a guide.
type CreateEvaluationRequest struct {
	GuideID       string `json:"guideId" validate:"required"`
	Message       string `json:"message" validate:"required,max=500"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Location      string `json:"location"`
	Equipment     string `json:"equipment"`
}

// AcceptEvaluationRequest lets the guide confirm or override the schedule
// proposed at creation time. Empty fields keep the stored values.
type AcceptEvaluationRequest struct {
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Location      string `json:"location"`
	Equipment     string `json:"equipment"`
}

// EvaluationQuery mirrors supported listing filters.
type EvaluationQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
