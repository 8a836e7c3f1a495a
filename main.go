package main

import "github.com/meysamhadeli/dappai/cmd"

func main() {
	cmd.Execute()
}
