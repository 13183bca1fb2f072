package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/pakuspa"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	_ "github.com/viant/scy/kms/blowfish"
)

// Options represents command line options
type Options struct {
	Config  string `short:"c" long:"config" description:"YAML config URL" env:"PAKUSPA_CONFIG"`
	NoDebug bool   `long:"no-debug" description:"disable debug logging enabled by config"`
	pakuspa.ClientOptions

	Login   LoginCommand   `command:"login" description:"log in with email and password"`
	Logout  struct{}       `command:"logout" description:"remove stored session"`
	Whoami  struct{}       `command:"whoami" description:"show current user profile"`
	Session struct{}       `command:"session" description:"show stored session status"`
	Request RequestCommand `command:"request" description:"send authenticated API request"`
}

type LoginCommand struct {
	Email     string `short:"e" long:"email" description:"account email"`
	Password  string `short:"p" long:"password" description:"account password" env:"PAKUSPA_PASSWORD"`
	Secret    string `short:"s" long:"secret" description:"scy secret URL holding username/password"`
	SecretKey string `long:"secret-key" description:"secret encryption key" default:"blowfish://default"`
}

// credentials resolves email and password; secret values take precedence over the password flag
func (l *LoginCommand) credentials(ctx context.Context) (string, string, error) {
	email, password := l.Email, l.Password
	if l.Secret != "" {
		basic, err := loadBasic(ctx, l.Secret, l.SecretKey)
		if err != nil {
			return "", "", err
		}
		if email == "" {
			email = basic.Username
		}
		if basic.Password != "" {
			password = basic.Password
		}
	}
	if email == "" {
		return "", "", errors.New("email is required, use --email or --secret")
	}
	if password == "" {
		return "", "", errors.New("password is required, use --password, PAKUSPA_PASSWORD or --secret")
	}
	return email, password, nil
}

func loadBasic(ctx context.Context, URL, key string) (*cred.Basic, error) {
	resource := scy.NewResource(&cred.Basic{}, URL, key)
	secret, err := scy.New().Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret %v: %w", URL, err)
	}
	switch actual := secret.Target.(type) {
	case *cred.Basic:
		return actual, nil
	case cred.Basic:
		return &actual, nil
	}
	return nil, fmt.Errorf("unsupported secret %v type: %T", URL, secret.Target)
}

type RequestCommand struct {
	Method string `short:"X" long:"method" description:"HTTP method" default:"GET"`
	Data   string `short:"d" long:"data" description:"JSON request body"`
	Args   struct {
		Path string `positional-arg-name:"path" description:"API path, i.e. /pets"`
	} `positional-args:"yes" required:"yes"`
}

// clientOptions merges flags over the optional config file; flags win.
// A bool flag cannot express false, so --no-debug turns off a config debug: true.
func (o *Options) clientOptions(ctx context.Context) (*pakuspa.ClientOptions, error) {
	ret := o.ClientOptions
	if o.Config != "" {
		loaded, err := pakuspa.LoadOptions(ctx, o.Config)
		if err != nil {
			return nil, err
		}
		if ret.BaseURL == "" {
			ret.BaseURL = loaded.BaseURL
		}
		if ret.Timeout == 0 {
			ret.Timeout = loaded.Timeout
		}
		if ret.UserAgent == "" {
			ret.UserAgent = loaded.UserAgent
		}
		ret.Debug = ret.Debug || loaded.Debug
		if ret.Store == (pakuspa.ClientStore{}) {
			ret.Store = loaded.Store
		}
	}
	if o.NoDebug {
		ret.Debug = false
	}
	if ret.Store.Type == "" {
		ret.Store.Type = pakuspa.StoreTypeFile
	}
	return &ret, nil
}
