package main

import cmd "github.com/paideia-dao/paideia-site/internal/cli"

func main() {
	cmd.Execute()
}
