package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/user"
)

// addAdmin updates or creates an admin account.
func (cli *commandLine) addAdmin(uname, email, pwd, role, chapter string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	chapter = core.CleanString(chapter)

	r := user.Role(core.CleanString(role, true /* lower */))
	if !r.IsValid() {
		return user.ErrInvalidRole
	}
	ch := core.Chapter(chapter)
	if r == user.RoleChapterAdmin && !ch.IsValid() {
		return fmt.Errorf("chapter admin requires a valid -chapter (one of %v)", core.Chapters)
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	usr.Role = r
	if r == user.RoleChapterAdmin {
		usr.Chapter = ch
	} else {
		usr.Chapter = ""
	}
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
