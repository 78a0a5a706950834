package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates an account.
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.api.Register(ctx, userName, string(password))
	if err != nil {
		fmt.Fprintf(a.out, "Registration failed: %s\n", describe(err))
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %s). You can log in now.\n", userName, id)
	return nil
}

// Login prompts for credentials and keeps the issued tokens in the API client.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %s\n", describe(err))
		return err
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}
