package main

import "github.com/Digital-Shane/shirarium/internal/cmd"

func main() {
	cmd.Execute()
}
