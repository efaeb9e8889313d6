package adapter

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/pkg/emailcheck"
)

// EmailVerify checks a single address for deliverability.
type EmailVerify struct {
	client emailcheck.Client
	cost   float64
}

// NewEmailVerify creates the email-verification adapter.
func NewEmailVerify(client emailcheck.Client, costUSD float64) *EmailVerify {
	return &EmailVerify{client: client, cost: costUSD}
}

func (a *EmailVerify) Tag() model.SourceTag { return model.TagEmailVerify }
func (a *EmailVerify) CostPerCall() float64 { return a.cost }

func (a *EmailVerify) Call(ctx context.Context, q Query) (*Result, error) {
	if q.Email == "" {
		return &Result{}, nil
	}

	v, err := a.client.Verify(ctx, q.Email)
	if err != nil {
		return nil, eris.Wrap(err, "adapter: email verify")
	}

	return &Result{
		Verification: &model.EmailVerification{
			Email:        q.Email,
			SyntaxValid:  v.State != "undeliverable" || v.Reason != "invalid_email",
			MXValid:      v.MXRecord != "",
			Deliverable:  v.Deliverable(),
			CatchAll:     v.AcceptAll,
			RoleAccount:  v.Role,
			FreeProvider: v.Free,
		},
	}, nil
}
