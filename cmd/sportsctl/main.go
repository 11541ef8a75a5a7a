package main

import "github.com/manolisziCy/sports/cmd/sportsctl/cmd"

func main() {
	cmd.Execute()
}
