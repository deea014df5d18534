package main

import "github.com/productdevbook/portzap/cmd"

func main() {
	cmd.Execute()
}
