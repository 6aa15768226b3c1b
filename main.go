package main

import "github.com/frahmantamala/payable/cmd"

func main() {
	cmd.Execute()
}
