// mpreachdump decodes BGP multiprotocol reachability attributes from hex
// input, UPDATE messages and MRT dumps.
package main

import "github.com/jwhited/mpreach/cmd/mpreachdump/commands"

func main() {
	commands.Execute()
}
