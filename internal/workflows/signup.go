// Package workflows holds the demo steps wired up by cmd/stepflow: a user
// signup flow exercising success transitions, sleep/await, retries with
// compensation, and context passing between steps.
package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stepflowhq/stepflow/pkg/stepflow/core"
	"github.com/stepflowhq/stepflow/pkg/stepflow/models"
)

// Step names of the signup workflow.
const (
	StepVerifyEmail    = "VerifyEmail"
	StepCreateAccount  = "CreateAccount"
	StepCapturePayment = "CapturePayment"
	StepShipWelcomeKit = "ShipWelcomeKit"
	StepReleasePayment = "ReleasePayment"
)

// VerifyEmail waits for the user to confirm their address. The first
// execution records that a verification mail went out and parks the instance;
// the host wakes it with Engine.ScheduleNow once the confirmation arrives (the
// demo simply lets the sleep expire and treats the address as confirmed).
type VerifyEmail struct{}

func (VerifyEmail) Name() string { return StepVerifyEmail }

func (VerifyEmail) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	if vars.GetOr("emailVerified", "") == "true" {
		return models.Success(), nil
	}
	if _, sent := vars.Get("verificationSentAt"); !sent {
		slog.InfoContext(ctx, "Sending verification email", "email", vars.GetOr("email", "<unknown>"))
		vars.Set("verificationSentAt", time.Now().UTC().Format(time.RFC3339))
		// park with the engine's default sleep interval
		return models.Sleep(0), nil
	}
	// woken up again, the demo counts that as confirmed
	vars.Set("emailVerified", "true")
	return models.Success(), nil
}

// CreateAccount provisions the user account. The accountId written to the
// vars doubles as the idempotency key: a re-run after a crash finds it and
// does not provision twice.
type CreateAccount struct{}

func (CreateAccount) Name() string { return StepCreateAccount }

func (CreateAccount) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	if id, ok := vars.Get("accountId"); ok {
		slog.InfoContext(ctx, "Account already provisioned", "account_id", id)
		return models.Success(), nil
	}
	accountID := uuid.NewString()
	vars.Set("accountId", accountID)
	slog.InfoContext(ctx, "Created account", "account_id", accountID, "email", vars.GetOr("email", "<unknown>"))
	return models.Success(), nil
}

// CapturePayment charges the signup fee. One simulated transient failure per
// instance demonstrates the retry path; a declined card demonstrates the
// compensation path.
type CapturePayment struct{}

func (CapturePayment) Name() string { return StepCapturePayment }

func (CapturePayment) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	if vars.GetOr("cardDeclined", "") == "true" {
		return models.Failure("card declined"), nil
	}
	if vars.GetOr("simulateTransientFailure", "") == "true" {
		vars.Delete("simulateTransientFailure")
		return models.StepResult{}, fmt.Errorf("payment gateway timed out")
	}
	paymentID := uuid.NewString()
	vars.Set("paymentId", paymentID)
	slog.InfoContext(ctx, "Captured payment", "payment_id", paymentID, "account_id", vars.GetOr("accountId", "<unknown>"))
	return models.Success(), nil
}

// ShipWelcomeKit is the final happy-path step.
type ShipWelcomeKit struct{}

func (ShipWelcomeKit) Name() string { return StepShipWelcomeKit }

func (ShipWelcomeKit) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	slog.InfoContext(ctx, "Shipping welcome kit", "account_id", vars.GetOr("accountId", "<unknown>"))
	vars.Set("shipped", "true")
	return models.Success(), nil
}

// ReleasePayment compensates a failed capture by voiding whatever was
// reserved. It is wired to (CapturePayment, FAILURE).
type ReleasePayment struct{}

func (ReleasePayment) Name() string { return StepReleasePayment }

func (ReleasePayment) Execute(ctx context.Context, vars *core.Context) (models.StepResult, error) {
	slog.InfoContext(ctx, "Releasing payment reservation", "account_id", vars.GetOr("accountId", "<unknown>"))
	vars.Set("paymentReleased", "true")
	return models.Failure("signup abandoned after payment failure"), nil
}
