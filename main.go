package main

import "github.com/listmsg/mailman-bridge/cmd"

func main() {
	cmd.Execute()
}
