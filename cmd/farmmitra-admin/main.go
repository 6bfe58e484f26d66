// Command farmmitra-admin runs maintenance tasks against the FarmMitra
// database: creating accounts, resetting passwords, seeding sample listings
// and reporting collection counts.
package main

import (
	"log"
	"os"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if closeErr := a.close(); closeErr != nil {
		log.Printf("Error closing database: %v", closeErr)
	}
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
