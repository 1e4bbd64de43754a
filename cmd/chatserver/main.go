// chatserver runs the multi-agent chat room server: the actor runtime,
// its executors, and the REST/WebSocket API in front of it.
package main

func main() {
	Execute()
}
