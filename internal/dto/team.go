package dto

import "github.com/Ashu-Jha004/sportsv2-sub003/internal/models"

// SubmitTeamApplicationRequest is the payload for a new team formation
// application.
type SubmitTeamApplicationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=64"`
	Sport    string `json:"sport" validate:"required"`
	Rank     string `json:"rank"`
	Class    string `json:"class"`
	Location string `json:"location" validate:"required"`
}

// ReviewTeamApplicationRequest carries the optional reviewer note for both
// approval and rejection.
type ReviewTeamApplicationRequest struct {
	Note string `json:"note"`
}

// TeamApprovalResult returns the approved application together with the id
// of the team created by the transition.
type TeamApprovalResult struct {
	Application *models.TeamFormationApplication `json:"application"`
	TeamID      string                           `json:"teamId"`
}

// TeamApplicationQuery mirrors supported listing filters.
type TeamApplicationQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
