package applications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/enums"
	pkgerrors "github.com/retechci/retechci-backend/pkg/errors"
)

func TestStatusOnlyMovesForward(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc := newTestService(t, store.NewMemory(), nil)
		ctx := context.Background()

		input := koffi()
		input.Email = uuid.NewString() + "@test.ci"
		app, err := svc.Submit(ctx, input)
		if err != nil {
			rt.Fatalf("submit: %v", err)
		}

		ops := []string{"approve", "invite", "activate"}
		roles := enums.MemberRoles()
		current := enums.ApplicationStatusPending

		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom(ops).Draw(rt, "op")
			actor := access.Actor{MemberID: uuid.New(), Role: rapid.SampledFrom(roles).Draw(rt, "role")}

			switch op {
			case "approve":
				_, err = svc.Approve(ctx, app.ID, actor)
			case "invite":
				_, err = svc.Invite(ctx, app.ID, actor)
			default:
				_, err = svc.Activate(ctx, app.ID, actor)
			}

			got, getErr := svc.Get(ctx, app.ID, director)
			if getErr != nil {
				rt.Fatalf("get: %v", getErr)
			}
			if got.Status.Rank() < current.Rank() {
				rt.Fatalf("status moved backwards from %s to %s", current, got.Status)
			}

			if err == nil {
				if got.Status.Rank() != current.Rank()+1 {
					rt.Fatalf("%s succeeded but status went from %s to %s", op, current, got.Status)
				}
			} else {
				if got.Status != current {
					rt.Fatalf("%s failed (%v) but status changed to %s", op, err, got.Status)
				}
				typed := pkgerrors.As(err)
				if typed == nil {
					rt.Fatalf("untyped error %v", err)
				}
				switch typed.Code() {
				case pkgerrors.CodeForbidden, pkgerrors.CodeInvalidTransition:
				default:
					rt.Fatalf("unexpected error code %s", typed.Code())
				}
			}
			current = got.Status
		}
	})
}
