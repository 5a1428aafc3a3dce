package main

import "github.com/MeKo-Tech/docweave/cmd/docweave/cmd"

func main() {
	cmd.Execute()
}
