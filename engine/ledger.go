package engine

import (
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StepInput is the caller-supplied part of a new resolution step. Zero
// Status means pending, zero Date means now.
type StepInput struct {
	Description string
	Status      models.StepStatus
	Date        time.Time
}

// AddResolutionStep appends a step to the issue's ledger and advances the
// status machine. Only roles with CapAddResolutionStep may call it; on any
// failure the issue is left as it was.
func AddResolutionStep(issue *models.Issue, actor *models.User, in StepInput, now time.Time) (*models.ResolutionStep, error) {
	if !actor.Role.Can(models.CapAddResolutionStep) {
		return nil, Forbidden("only officials and admins can add resolution steps")
	}
	desc, err := validateStepDescription(in.Description)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.StepPending
	}
	if !status.Valid() {
		return nil, Invalid("invalid resolution step status %q", status)
	}
	date := in.Date
	if date.IsZero() {
		date = now
	}

	issue.ResolutionSteps = append(issue.ResolutionSteps, models.ResolutionStep{
		ID:          primitive.NewObjectID(),
		Description: desc,
		Status:      status,
		Date:        date,
		UpdatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	advanceStatus(issue, status)
	touch(issue, actor.ID, now)
	return &issue.ResolutionSteps[len(issue.ResolutionSteps)-1], nil
}

// CompleteResolutionStep moves one pending step to completed and re-runs
// the completion rule, so finishing the last open step resolves the issue.
func CompleteResolutionStep(issue *models.Issue, stepID primitive.ObjectID, actor *models.User, now time.Time) (*models.ResolutionStep, error) {
	if !actor.Role.Can(models.CapAddResolutionStep) {
		return nil, Forbidden("only officials and admins can update resolution steps")
	}
	idx := issue.StepIndex(stepID)
	if idx < 0 {
		return nil, NotFound("resolution step")
	}
	step := &issue.ResolutionSteps[idx]
	if step.Status == models.StepCompleted {
		return nil, Invalid("resolution step is already completed")
	}
	step.Status = models.StepCompleted
	step.UpdatedBy = actor.ID
	step.UpdatedAt = now

	advanceStatus(issue, models.StepCompleted)
	touch(issue, actor.ID, now)
	return step, nil
}

// advanceStatus applies the ledger transition rule for a step that just
// entered the ledger (or just changed) with the given status.
func advanceStatus(issue *models.Issue, status models.StepStatus) {
	switch {
	case status == models.StepCompleted && issue.Status != models.Resolved:
		if allStepsCompleted(issue.ResolutionSteps) {
			issue.Status = models.Resolved
		} else {
			issue.Status = models.InProgress
		}
	case issue.Status == models.Pending:
		issue.Status = models.InProgress
	}
}

func allStepsCompleted(steps []models.ResolutionStep) bool {
	for _, s := range steps {
		if s.Status != models.StepCompleted {
			return false
		}
	}
	return true
}

// OverrideStatus lets a privileged actor set status and escalation
// directly. Nil arguments leave the field alone. An explicit escalation value
// wins over whatever the detector derives.
func OverrideStatus(issue *models.Issue, actor *models.User, status *models.IssueStatus, escalated *bool, now time.Time) error {
	if !actor.Role.Can(models.CapOverrideIssue) {
		return Forbidden("you do not have permission to change status or escalation")
	}
	if status != nil && !status.Valid() {
		return Invalid("invalid status value %q", *status)
	}
	if status != nil {
		issue.Status = *status
	}
	touch(issue, actor.ID, now)
	if escalated != nil {
		issue.IsEscalated = *escalated
	}
	return nil
}

func touch(issue *models.Issue, actor primitive.ObjectID, now time.Time) {
	issue.LastUpdatedBy = &actor
	issue.UpdatedAt = now
	Refresh(issue, now)
}
