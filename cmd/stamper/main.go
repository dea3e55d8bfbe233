package main

import (
	"github.com/tdewolff/argp"
)

func main() {
	root := argp.New("Signature stamping toolkit for Contract 961")
	root.AddCmd(&Stamp{}, "stamp", "Stamp a signature block into a PDF")
	root.AddCmd(&Verify{}, "verify", "Check a stored signed copy against its hash")
	root.AddCmd(&Complete{}, "complete", "Complete a signing request from the database")
	root.Parse()
	root.PrintHelp()
}
