package main

import "github.com/docstruct/docstruct/cmd"

func main() {
	cmd.Execute()
}
