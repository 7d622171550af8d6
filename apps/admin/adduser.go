package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core"
	"github.com/yzGabiru/callback/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     email,
			IsAdmin:   isAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.Name = name
	usr.UpdatedAt = time.Now().UTC()
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active, &isAdmin)
	return err
}
