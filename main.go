package main

import "github.com/ValentinKolb/serbench/cmd"

func main() {
	cmd.Execute()
}
