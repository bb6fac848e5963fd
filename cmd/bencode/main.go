package main

import "github.com/unkn0wn-root/bencode/cmd/bencode/cmd"

func main() {
	cmd.Execute()
}
