package user

import (
	"context"

	"github.com/yzGabiru/callback/core"
)

type serviceMock struct {
	Service
}

// NewServiceMock returns a Service whose password reset mail is sent
// synchronously so tests can assert on the mailbox.
func NewServiceMock(conf *core.Config, repo Repository, mailSvc core.EmailService) ServiceInterface {
	svc := NewService(conf, repo, mailSvc)
	return &serviceMock{Service: *svc}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
