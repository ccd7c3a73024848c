package main

import "github.com/kryptostream/obengine/cmd"

func main() {
	cmd.Execute()
}
