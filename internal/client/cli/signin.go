package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Authenticator is the server API used by the sign-in flow.
type Authenticator interface {
	SignIn(ctx context.Context, login, password string) (string, error)
	Session(ctx context.Context, token string) (*client.Session, error)
}

// SignIn prompts for missing credentials, signs in and prints the token
// with the identity it is bound to. The timeout covers the server calls
// only, prompting is not limited.
func SignIn(ctx context.Context, a Authenticator, reader *bufio.Reader, w io.Writer, login string, timeout time.Duration) error {
	if login == "" {
		var err error
		login, err = GetSimpleText(reader, "Enter login", w)
		if err != nil {
			return fmt.Errorf("reading login: %w", err)
		}
	}

	pw, err := GetPassword(w)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	defer wipe(pw)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token, err := a.SignIn(ctx, login, string(pw))
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return errors.New("invalid login or password")
		}
		return err
	}

	session, err := a.Session(ctx, token)
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}

	fmt.Fprintf(w, "Signed in as %s <%s> (id %s), valid until %s\n",
		session.Username, session.Email, session.Subject, session.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintln(w, token)

	return nil
}
