package workflows

import (
	"github.com/stepflowhq/stepflow/pkg/stepflow"
)

// SignupWorkflowName is the registered name of the demo signup workflow.
const SignupWorkflowName = "UserSignup"

// SignupDefinition builds the demo signup graph:
//
//	VerifyEmail -> CreateAccount -> CapturePayment -> ShipWelcomeKit
//	                                      |FAILURE
//	                                      v
//	                               ReleasePayment (terminal FAILED)
func SignupDefinition() (*stepflow.WorkflowDefinition, error) {
	return stepflow.NewDefinition(SignupWorkflowName, StepVerifyEmail).
		Describe("Demo signup flow: email verification, account creation, payment capture with compensation").
		Step(VerifyEmail{}).
		Step(CreateAccount{}).
		Step(CapturePayment{}).
		Step(ShipWelcomeKit{}).
		Step(ReleasePayment{}).
		OnSuccess(StepVerifyEmail, StepCreateAccount).
		OnSuccess(StepCreateAccount, StepCapturePayment).
		OnSuccess(StepCapturePayment, StepShipWelcomeKit).
		OnFailure(StepCapturePayment, StepReleasePayment).
		Build()
}
