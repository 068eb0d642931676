// Command airguitar turns hand gestures in front of a webcam into chord and strum events.
package main

func main() {
	Execute()
}
