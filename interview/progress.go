// ABOUTME: Visit flow steps and the weighted completion percentage
// ABOUTME: Customer info 15, prompts 60, details 15, summary 10
package interview

import (
	"math"

	"github.com/harperreed/onsite/models"
)

// Step is a stage of the visit flow.
type Step int

const (
	StepStart Step = iota
	StepCustomerInfo
	StepPrompts
	StepDetails
	StepSummary
)

var stepNames = map[Step]string{
	StepStart:        "Start",
	StepCustomerInfo: "Customer",
	StepPrompts:      "Questions",
	StepDetails:      "Details",
	StepSummary:      "Summary",
}

func (s Step) String() string {
	return stepNames[s]
}

// Stages lists the steps shown in the progress bar.
var Stages = []Step{StepCustomerInfo, StepPrompts, StepDetails, StepSummary}

const (
	weightCustomer = 15.0
	weightPrompts  = 60.0
	weightDetails  = 15.0
	weightSummary  = 10.0
)

// Progress returns the overall completion percentage for a visit at a step.
func Progress(step Step, v *models.Visit) int {
	if step == StepStart || v == nil {
		return 0
	}

	completed := 0.0

	if v.HasCustomerInfo() {
		completed += weightCustomer
	} else if step == StepCustomerInfo {
		completed += weightCustomer * 0.5
	}

	if step >= StepPrompts && len(v.Prompts) > 0 {
		completed += weightPrompts * float64(CountAnswered(v.Prompts)) / float64(len(v.Prompts))
	}

	if v.HasDetails() {
		completed += weightDetails
	} else if step == StepDetails {
		completed += weightDetails * 0.5
	}

	if step == StepSummary {
		completed += weightSummary
	}

	return int(math.Round(completed))
}

// StageStatus describes a stage relative to the current step.
type StageStatus int

const (
	StageUpcoming StageStatus = iota
	StageCurrent
	StageCompleted
)

func Status(current, stage Step) StageStatus {
	switch {
	case stage < current:
		return StageCompleted
	case stage == current:
		return StageCurrent
	}
	return StageUpcoming
}
