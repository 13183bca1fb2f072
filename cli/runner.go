package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/viant/pakuspa"
	"github.com/viant/pakuspa/client"
	"github.com/viant/pakuspa/client/auth"
	"github.com/viant/pakuspa/internal/httperr"
)

// Run parses args and executes the selected command
func Run(args []string) error {
	return run(context.Background(), args, os.Stdout)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	clientOptions, err := options.clientOptions(ctx)
	if err != nil {
		return err
	}
	cli, err := pakuspa.NewClient(ctx, clientOptions)
	if err != nil {
		return err
	}
	switch parser.Active.Name {
	case "login":
		return login(ctx, cli, &options.Login, out)
	case "logout":
		if err = cli.Logout(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, "logged out")
		return err
	case "whoami":
		user, err := cli.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, user)
	case "session":
		return session(ctx, cli, out)
	case "request":
		return request(ctx, cli, &options.Request, out)
	}
	return fmt.Errorf("unsupported command: %v", parser.Active.Name)
}

func login(ctx context.Context, cli *client.Client, cmd *LoginCommand, out io.Writer) error {
	email, password, err := cmd.credentials(ctx)
	if err != nil {
		return err
	}
	user, err := cli.Login(ctx, email, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "logged in as %v\n", user.Email)
	return err
}

type sessionStatus struct {
	LoggedIn bool       `json:"loggedIn"`
	Email    string     `json:"email,omitempty"`
	Role     string     `json:"role,omitempty"`
	Expiry   *time.Time `json:"expiry,omitempty"`
	Expired  bool       `json:"expired,omitempty"`
}

func session(ctx context.Context, cli *client.Client, out io.Writer) error {
	token, err := cli.Session(ctx)
	if err != nil {
		return err
	}
	status := &sessionStatus{LoggedIn: token != nil}
	if token != nil {
		if claims, err := auth.ParseClaims(token.AccessToken); err == nil {
			status.Email = claims.Email
			status.Role = claims.Role
		}
		if !token.Expiry.IsZero() {
			status.Expiry = &token.Expiry
			// expired access tokens are refreshed on the next request
			status.Expired = token.Expiry.Before(time.Now())
		}
	}
	return printJSON(out, status)
}

func request(ctx context.Context, cli *client.Client, cmd *RequestCommand, out io.Writer) error {
	var body io.Reader
	if cmd.Data != "" {
		if !json.Valid([]byte(cmd.Data)) {
			return fmt.Errorf("request body is not valid JSON")
		}
		body = strings.NewReader(cmd.Data)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(cmd.Method), cli.URL(cmd.Args.Path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := cli.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httperr.FromResponse(resp)
	}
	defer resp.Body.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}

func printJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
