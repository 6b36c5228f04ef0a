// The main package for the jobparser executable.
package main

import "github.com/JakeFAU/jobparser/cmd"

func main() {
	cmd.Execute()
}
