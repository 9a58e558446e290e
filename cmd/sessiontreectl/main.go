// Command sessiontreectl is an administrative CLI over a sessiontree
// database: initialize it, append test events, project and search sessions,
// fork, and check invariants.
package main

func main() {
	Execute()
}
