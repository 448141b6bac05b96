package main

import "github.com/Adithya-Monish-Kumar-K/postings-codec/cmd/postingsctl/cmd"

func main() {
	cmd.Execute()
}
