// Package pakuspa provides configuration helpers for the PAKU Spa API client.
//
// ClientOptions can be populated from CLI flags or a YAML file and turned into a
// ready to use client.Client with a memory, file or Redis backed session store:
//
//	options, _ := pakuspa.LoadOptions(ctx, "~/.config/pakuspa/config.yaml")
//	cli, _ := pakuspa.NewClient(ctx, options)
//	_, _ = cli.Login(ctx, "owner@example.com", "secret")
package pakuspa
