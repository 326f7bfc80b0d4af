package main

import "github.com/goliatone/go-storefront-auth/cmd/storefrontd/cli"

func main() {
	cli.Execute()
}
