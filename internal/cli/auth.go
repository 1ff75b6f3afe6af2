package cli

import "context"

func (a *App) signup(ctx context.Context) {
	if a.registry == nil {
		a.println("Accounts are managed by the server in remote mode.")
		return
	}

	email, err := getSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	password, err := getPassword(a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}

	user, err := a.registry.Register(ctx, email, string(password))
	if err != nil {
		a.println("Error:", err)
		return
	}

	if _, err := a.sessions.Start(ctx, user.ID, user.Email); err != nil {
		a.println("Error:", err)
		return
	}
	a.printf("Welcome, %s!\n", user.Email)
}

func (a *App) login(ctx context.Context) {
	if a.registry == nil {
		a.println("Identity comes from the configured access token in remote mode.")
		return
	}

	email, err := getSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	password, err := getPassword(a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}

	user, err := a.registry.Authenticate(ctx, email, string(password))
	if err != nil {
		a.println("Error:", err)
		return
	}

	if _, err := a.sessions.Start(ctx, user.ID, user.Email); err != nil {
		a.println("Error:", err)
		return
	}
	a.printf("Logged in as %s.\n", user.Email)
}

func (a *App) logout(ctx context.Context) {
	if a.sessions == nil {
		a.println("Nothing to log out of in remote mode.")
		return
	}
	if err := a.sessions.End(ctx); err != nil {
		a.println("Error:", err)
		return
	}
	a.println("Logged out.")
}
