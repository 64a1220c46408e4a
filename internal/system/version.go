package system

import "fmt"

var Name = "people-sync"
var Version = "<unset>"
var Commit = "<unset>"
var Repository = "https://github.com/telekom/people-sync"

func PrettyInfo() string {
	return fmt.Sprintf(`
===========================================================================
Application: %s
Version %s
GOTO: %s/-/tree/%s
===========================================================================
`, Name, Version, Repository, Commit)
}
