// Package client implements a Go client for the PAKU Spa booking API.
//
// Every call goes through an authenticated http.Client whose transport attaches the
// stored bearer token and transparently refreshes it when the API answers 401. While one
// refresh is in flight, other rejected calls wait for it and are replayed with the new
// token; if the refresh fails, the stored session is cleared and every waiting call
// fails with an error matching transport.ErrRefreshFailed.
//
// Example:
//
//	cli, _ := client.New("https://api.pakuspa.example/api", client.WithStore(aStore))
//	_, _ = cli.Login(ctx, "owner@example.com", "secret")
//	var pets []Pet
//	err := cli.Get(ctx, "pets", &pets)
package client
