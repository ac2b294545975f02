package main

import "github.com/frahmantamala/store-auth/cmd"

func main() {
	cmd.Execute()
}
