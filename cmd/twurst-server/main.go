// Command twurst-server runs the example Twirp service, exposing it over
// both the Twirp HTTP protocol and gRPC.
package main

import "github.com/helsing-ai/twurst/pkg/tasks"

func main() {
	tasks.Execute()
}
