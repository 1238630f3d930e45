package main

import "github.com/frahmantamala/course-enrollment/cmd"

func main() {
	cmd.Execute()
}
