package main

import "hydrogen/hydrogenctl/cmd"

func main() {
	cmd.Execute()
}
